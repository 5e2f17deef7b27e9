package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByGroupID struct {
	GroupID uuid.UUID
}

func (s ByGroupID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("group_id = ?", s.GroupID)
}

type ByGroupIDs struct {
	GroupIDs []uuid.UUID
}

func (s ByGroupIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("group_id IN ?", s.GroupIDs)
}
