package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateGroupRequest struct {
	Title string `json:"title" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=note todo shopping checklist ideas goals"`
}

type CreateGroupResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateGroupRequest struct {
	Id    uuid.UUID
	Title string `json:"title" validate:"required"`
}

type UpdateGroupResponse struct {
	Id uuid.UUID `json:"id"`
}

type GroupResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
