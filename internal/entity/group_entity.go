package entity

import (
	"time"

	"github.com/google/uuid"
)

// GroupType decides how notes inside the group are edited: free text or a
// checklist of items. Fixed at creation time.
type GroupType string

const (
	GroupTypeNote      GroupType = "note"
	GroupTypeTodo      GroupType = "todo"
	GroupTypeShopping  GroupType = "shopping"
	GroupTypeChecklist GroupType = "checklist"
	GroupTypeIdeas     GroupType = "ideas"
	GroupTypeGoals     GroupType = "goals"
)

func (t GroupType) Valid() bool {
	switch t {
	case GroupTypeNote, GroupTypeTodo, GroupTypeShopping, GroupTypeChecklist, GroupTypeIdeas, GroupTypeGoals:
		return true
	}
	return false
}

// IsChecklist reports whether notes in a group of this type carry Items
// instead of free-text Content.
func (t GroupType) IsChecklist() bool {
	return t == GroupTypeTodo || t == GroupTypeShopping || t == GroupTypeChecklist
}

type Group struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string
	Type      GroupType
	UserId    uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy string    // email of the owner at creation time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
