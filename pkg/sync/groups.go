package sync

import (
	"context"
	"sort"
	"sync"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend"

	"github.com/google/uuid"
)

// GroupStore is a live view of the current user's non-deleted groups, kept
// sorted by UpdatedAt descending. It is inactive (empty collection, no
// subscription) until SetUser provides a user id.
//
// Pushes fully replace the collection; there is no incremental merge, so a
// reader always sees a complete, internally consistent set. Mutations return
// once the backend acknowledges the write; the collection converges through
// the subscription afterwards, not synchronously.
type GroupStore struct {
	client backend.Client
	log    logger.ILogger

	mu        sync.Mutex
	gen       uint64
	userId    *uuid.UUID
	userEmail string
	groups    []*entity.Group
	loading   bool
	err       string
	listeners []func()
	cancel    context.CancelFunc
}

func NewGroupStore(client backend.Client, log logger.ILogger) *GroupStore {
	return &GroupStore{client: client, log: log}
}

// SetUser re-parameterizes the store. The previous subscription is cancelled
// and the collection cleared before anything else happens, so stale rows from
// the old user are never observable. A nil userId leaves the store inactive.
func (s *GroupStore) SetUser(userId *uuid.UUID, userEmail string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	myGen := s.gen
	s.groups = nil
	s.loading = false
	s.err = ""
	s.userId = userId
	s.userEmail = userEmail

	if userId == nil {
		s.mu.Unlock()
		s.notify()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()
	s.notify()

	snapshots, err := s.client.Groups().Subscribe(ctx, *userId)
	if err != nil {
		s.recordAsync(myGen, err)
		return
	}
	go s.watch(myGen, snapshots)
}

func (s *GroupStore) watch(gen uint64, snapshots <-chan backend.GroupSnapshot) {
	for snap := range snapshots {
		s.mu.Lock()
		if s.gen != gen {
			// A newer SetUser superseded this subscription.
			s.mu.Unlock()
			return
		}
		if snap.Err != nil {
			s.err = snap.Err.Error()
			s.loading = false
			s.mu.Unlock()
			s.notify()
			s.log.Warn("group_store", "subscription push failed", map[string]interface{}{"error": snap.Err.Error()})
			continue
		}
		groups := snap.Groups
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].UpdatedAt.After(groups[j].UpdatedAt)
		})
		s.groups = groups
		s.loading = false
		s.err = ""
		s.mu.Unlock()
		s.notify()
	}
}

// recordAsync stores a subscription-level error. There is no caller to
// propagate to, so it is recorded only, never re-raised.
func (s *GroupStore) recordAsync(gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.err = err.Error()
	s.loading = false
	s.mu.Unlock()
	s.notify()

	s.log.Warn("group_store", "subscription failed", map[string]interface{}{"error": err.Error()})
}

// Groups returns the current collection, most recently updated first.
func (s *GroupStore) Groups() []*entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

func (s *GroupStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *GroupStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// OnChange registers a callback invoked after every observable state change.
// Callbacks run outside the store lock and must not block.
func (s *GroupStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *GroupStore) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// AddGroup creates a group owned by the current user and returns its id as
// soon as the write is acknowledged. The collection reflects it once the
// subscription converges.
func (s *GroupStore) AddGroup(ctx context.Context, title string, groupType entity.GroupType) (uuid.UUID, error) {
	s.mu.Lock()
	userId := s.userId
	s.mu.Unlock()
	if userId == nil {
		return uuid.Nil, s.recordErr(errs.ErrNotAuthenticated)
	}

	id, err := s.client.Groups().Insert(ctx, title, groupType)
	if err != nil {
		return uuid.Nil, s.recordErr(err)
	}
	return id, nil
}

// UpdateGroup renames a group. The backend bumps UpdatedAt.
func (s *GroupStore) UpdateGroup(ctx context.Context, id uuid.UUID, title string) error {
	err := s.client.Groups().Update(ctx, id, backend.GroupPatch{Title: &title})
	if err != nil {
		return s.recordErr(err)
	}
	return nil
}

// DeleteGroup soft-deletes; the group disappears from the collection but the
// row survives and remains restorable.
func (s *GroupStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Groups().SetDeleted(ctx, id, true); err != nil {
		return s.recordErr(err)
	}
	return nil
}

func (s *GroupStore) RestoreGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Groups().SetDeleted(ctx, id, false); err != nil {
		return s.recordErr(err)
	}
	return nil
}

// recordErr stores a mutation failure for display and returns it unchanged so
// the caller can react. The store never swallows a failed mutation.
func (s *GroupStore) recordErr(err error) error {
	s.mu.Lock()
	s.err = err.Error()
	s.mu.Unlock()
	s.notify()

	s.log.Warn("group_store", "mutation failed", map[string]interface{}{"error": err.Error()})
	return err
}

// Close tears the store down. Equivalent to SetUser(nil, "").
func (s *GroupStore) Close() {
	s.SetUser(nil, "")
}
