package dto

import (
	"time"

	"notesync/internal/entity"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title   string            `json:"title" validate:"required"`
	Content string            `json:"content"`
	Items   []entity.NoteItem `json:"items,omitempty"`
	GroupId uuid.UUID         `json:"group_id" validate:"required"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateNoteRequest struct {
	Id      uuid.UUID
	Title   string             `json:"title" validate:"required"`
	Content string             `json:"content"`
	Items   *[]entity.NoteItem `json:"items,omitempty"`
}

type UpdateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type NoteResponse struct {
	Id        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Items     []entity.NoteItem `json:"items,omitempty"`
	GroupId   uuid.UUID         `json:"group_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt *time.Time        `json:"deleted_at,omitempty"`
}
