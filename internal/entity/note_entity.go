package entity

import (
	"time"

	"github.com/google/uuid"
)

// NoteItem is a single checkable entry of a checklist-type note. Its whole
// lifecycle is contained in the parent note's Items slice.
type NoteItem struct {
	Id        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string
	Content   string
	Items     []NoteItem // nil for free-text notes, non-nil only for checklist groups
	GroupId   uuid.UUID  `gorm:"type:uuid;index"`
	UserId    uuid.UUID  `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
