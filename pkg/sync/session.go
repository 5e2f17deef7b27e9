// Package sync holds the three client-side synchronization units of the
// notes application: the session manager, the group store, and the note
// store. Each unit owns a live subscription against the injected
// backend.Client, replaces its whole collection on every push, and exposes
// mutation methods that surface backend failures to the caller.
//
// The units are independent. Cross-unit effects happen only by feeding one
// unit's output into another's parameters (the session's user into
// GroupStore.SetUser, the selected group into NoteStore.SetScope), never by
// mutating another unit's state directly.
package sync

import (
	"context"
	"sync"

	"notesync/internal/entity"
	"notesync/internal/pkg/logger"
	"notesync/pkg/backend"
)

// Session tracks the authenticated identity. It subscribes once, for its
// whole lifetime, to the backend auth-state stream, so externally triggered
// sign-outs (another tab, token expiry) are reflected without any local call.
type Session struct {
	client backend.Client
	log    logger.ILogger

	mu        sync.Mutex
	user      *entity.User
	loading   bool
	err       string
	listeners []func()

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession starts the lifetime auth-state watch. Loading reports true until
// the first auth-state push resolves the initial session.
func NewSession(client backend.Client, log logger.ILogger) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		client:  client,
		log:     log,
		loading: true,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	states, err := client.AuthStates(ctx)
	if err != nil {
		cancel()
		close(s.done)
		return nil, err
	}
	go s.watch(states)

	return s, nil
}

func (s *Session) watch(states <-chan *entity.User) {
	defer close(s.done)
	for user := range states {
		s.mu.Lock()
		s.user = user
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}
}

// User returns the signed-in user, or nil.
func (s *Session) User() *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Loading is true only while the initial session is being resolved, never
// during SignIn or SignOut calls.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message of the last failed operation, empty after a
// success.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// OnChange registers a callback invoked after every observable state change.
// Callbacks run outside the session lock and must not block.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	user, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.user = user
	s.err = ""
	s.mu.Unlock()
	s.notify()

	s.log.Info("session", "signed in", map[string]interface{}{"email": email})
	return nil
}

func (s *Session) SignUp(ctx context.Context, email, password string) error {
	user, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.user = user
	s.err = ""
	s.mu.Unlock()
	s.notify()

	s.log.Info("session", "signed up", map[string]interface{}{"email": email})
	return nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.client.SignOut(ctx); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.err = ""
	s.mu.Unlock()
	s.notify()

	s.log.Info("session", "signed out", nil)
	return nil
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.err = err.Error()
	s.mu.Unlock()
	s.notify()

	s.log.Warn("session", "auth operation failed", map[string]interface{}{"error": err.Error()})
}

// Close stops the auth-state watch and waits for it to drain.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}
