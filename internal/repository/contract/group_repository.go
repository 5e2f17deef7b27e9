package contract

import (
	"context"
	"time"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
)

type GroupRepository interface {
	Create(ctx context.Context, group *entity.Group) error
	Update(ctx context.Context, group *entity.Group) error
	// SoftDelete stamps deleted_at and bumps updated_at; the row stays
	// recoverable via Restore.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	// PurgeDeletedBefore hard-removes rows soft-deleted before the cutoff.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Group, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Group, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
