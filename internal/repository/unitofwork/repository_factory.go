package unitofwork

import "context"

// RepositoryFactory hands out units of work; each unit shares one DB handle
// across the repositories it exposes.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
