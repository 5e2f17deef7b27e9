package unitofwork

import (
	"context"

	"notesync/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	GroupRepository() contract.GroupRepository
	NoteRepository() contract.NoteRepository
}
