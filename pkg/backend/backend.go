// Package backend defines the client handle the sync stores consume: auth
// operations plus live document collections for groups and notes. The handle
// is constructed explicitly and injected, never a package-level singleton, so
// tests can swap in a double.
//
// Subscription semantics follow the document store they front: a subscription
// delivers the FULL matching result set on every change, never an incremental
// diff. Cancelling the subscription context stops delivery; the snapshot
// channel is closed and nothing arrives afterwards.
package backend

import (
	"context"
	"time"

	"notesync/internal/entity"

	"github.com/google/uuid"
)

// GroupPatch is a partial update; nil fields are left untouched. The backend
// always bumps UpdatedAt, never the caller.
type GroupPatch struct {
	Title *string
}

// NotePatch is a partial update for a note. Items replaces the whole items
// array when non-nil (the array is the unit of persistence for checklist
// entries).
type NotePatch struct {
	Title   *string
	Content *string
	Items   *[]entity.NoteItem
}

// GroupSnapshot is one push from a live group subscription: either a complete
// result set or an asynchronous query failure, never both.
type GroupSnapshot struct {
	Groups []*entity.Group
	Err    error
}

// NoteSnapshot is one push from a live note subscription.
type NoteSnapshot struct {
	Notes []*entity.Note
	Err   error
}

// GroupCollection exposes the "groups" collection scoped to the signed-in
// user. Every operation fails with errs.ErrNotAuthenticated when no session
// is active, and with errs.ErrNotFound for rows the user does not own.
type GroupCollection interface {
	// Subscribe pushes snapshots of the user's non-deleted groups. The first
	// snapshot is delivered promptly after subscribing.
	Subscribe(ctx context.Context, userId uuid.UUID) (<-chan GroupSnapshot, error)
	Insert(ctx context.Context, title string, groupType entity.GroupType) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch GroupPatch) error
	// SetDeleted soft-deletes (true) or restores (false); member notes follow
	// the group.
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	// Purge hard-removes rows soft-deleted before the cutoff. Retention
	// cleanup only; normal flows never hard-delete.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// NoteCollection exposes the "notes" collection. A nil groupId subscribes to
// all of the user's notes.
type NoteCollection interface {
	Subscribe(ctx context.Context, userId uuid.UUID, groupId *uuid.UUID) (<-chan NoteSnapshot, error)
	Insert(ctx context.Context, groupId uuid.UUID, title, content string, items []entity.NoteItem) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch NotePatch) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Client is the process-wide handle to the identity-and-document backend.
// Implementations are safe for concurrent use; the session state (who is
// signed in) is shared by all three sync units.
type Client interface {
	SignIn(ctx context.Context, email, password string) (*entity.User, error)
	SignUp(ctx context.Context, email, password string) (*entity.User, error)
	SignOut(ctx context.Context) error

	// AuthStates pushes the current user on every externally visible
	// auth-state change; nil means signed out. The current state is pushed
	// promptly after subscribing.
	AuthStates(ctx context.Context) (<-chan *entity.User, error)

	Groups() GroupCollection
	Notes() NoteCollection

	Close() error
}
