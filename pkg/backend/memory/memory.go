// Package memory is an in-memory backend.Client. It exists for tests and for
// running the sync stores without a server, and mirrors the document-store
// contract exactly: full-snapshot pushes, server-assigned timestamps, soft
// delete with restore.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/pkg/backend"

	"github.com/google/uuid"
)

const minPasswordLen = 6

type Client struct {
	mu sync.Mutex

	users  map[string]*entity.User // keyed by email
	passwd map[string]string       // email -> password (plain; test double only)
	groups map[uuid.UUID]*entity.Group
	notes  map[uuid.UUID]*entity.Note

	current *entity.User

	authSubs  []*subscriber[*entity.User]
	groupSubs []*subscriber[backend.GroupSnapshot]
	noteSubs  []*subscriber[backend.NoteSnapshot]

	lastStamp time.Time

	closed bool
}

// subscriber delivers coalesced snapshots: notify has capacity one, so a
// burst of mutations produces a single fresh snapshot computed at delivery
// time, never a stale intermediate.
type subscriber[T any] struct {
	ctx      context.Context
	out      chan T
	notify   chan struct{}
	snapshot func() T
}

func (s *subscriber[T]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) run() {
	defer close(s.out)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.notify:
			select {
			case s.out <- s.snapshot():
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func New() *Client {
	return &Client{
		users:  make(map[string]*entity.User),
		passwd: make(map[string]string),
		groups: make(map[uuid.UUID]*entity.Group),
		notes:  make(map[uuid.UUID]*entity.Note),
	}
}

// stamp returns a strictly increasing server timestamp, so two consecutive
// updates always get distinct UpdatedAt values.
func (c *Client) stamp() time.Time {
	now := time.Now()
	if !now.After(c.lastStamp) {
		now = c.lastStamp.Add(time.Microsecond)
	}
	c.lastStamp = now
	return now
}

// ---- auth ----

func (c *Client) SignUp(ctx context.Context, email, password string) (*entity.User, error) {
	if !strings.Contains(email, "@") {
		return nil, errs.NewAuthError(errs.AuthInvalidEmail, "malformed email address")
	}
	if len(password) < minPasswordLen {
		return nil, errs.NewAuthError(errs.AuthWeakPassword, "password must be at least 6 characters")
	}

	c.mu.Lock()
	if _, exists := c.users[email]; exists {
		c.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthEmailInUse, "email already registered")
	}

	now := c.stamp()
	user := &entity.User{
		Id:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.users[email] = user
	c.passwd[email] = password
	c.current = user
	c.wakeAuthSubs()
	c.mu.Unlock()

	u := *user
	return &u, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*entity.User, error) {
	if !strings.Contains(email, "@") {
		return nil, errs.NewAuthError(errs.AuthInvalidEmail, "malformed email address")
	}

	c.mu.Lock()
	user, exists := c.users[email]
	if !exists || c.passwd[email] != password {
		c.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthWrongCredentials, "invalid credentials")
	}
	c.current = user
	c.wakeAuthSubs()
	c.mu.Unlock()

	u := *user
	return &u, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.wakeAuthSubs()
	c.mu.Unlock()
	return nil
}

// ForceSignOut simulates an externally pushed session end (another tab,
// token expiry). Test helper.
func (c *Client) ForceSignOut() {
	c.mu.Lock()
	c.current = nil
	c.wakeAuthSubs()
	c.mu.Unlock()
}

func (c *Client) AuthStates(ctx context.Context) (<-chan *entity.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscriber[*entity.User]{
		ctx:    ctx,
		out:    make(chan *entity.User),
		notify: make(chan struct{}, 1),
		snapshot: func() *entity.User {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.current == nil {
				return nil
			}
			u := *c.current
			return &u
		},
	}
	c.authSubs = append(c.authSubs, sub)
	go sub.run()
	sub.wake() // deliver the current state promptly
	return sub.out, nil
}

func (c *Client) wakeAuthSubs() {
	for _, sub := range c.authSubs {
		sub.wake()
	}
}

func (c *Client) currentUser() (*entity.User, error) {
	if c.current == nil {
		return nil, errs.ErrNotAuthenticated
	}
	return c.current, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Groups() backend.GroupCollection { return groupCollection{c} }
func (c *Client) Notes() backend.NoteCollection   { return noteCollection{c} }
