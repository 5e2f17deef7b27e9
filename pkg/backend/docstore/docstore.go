// Package docstore implements the backend client against the embedded
// Postgres document store. Auth resolves against the users table; live
// subscriptions are driven by the change feed: every matching change
// triggers a re-query and a full snapshot push, so subscribers get the same
// full-replacement semantics a hosted document store would give them.
package docstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"notesync/internal/entity"
	"notesync/internal/errs"
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/specification"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/backend"
	"notesync/pkg/feed"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Client struct {
	uowFactory unitofwork.RepositoryFactory
	feed       *feed.Feed
	log        logger.ILogger

	mu       sync.Mutex
	current  *entity.User
	authSubs []*authSub
}

var _ backend.Client = (*Client)(nil)

func New(uowFactory unitofwork.RepositoryFactory, changeFeed *feed.Feed, log logger.ILogger) *Client {
	return &Client{
		uowFactory: uowFactory,
		feed:       changeFeed,
		log:        log,
	}
}

// authSub delivers auth-state pushes without blocking the mutation path: a
// burst collapses into one delivery of the latest state.
type authSub struct {
	ctx    context.Context
	out    chan *entity.User
	notify chan struct{}
	latest func() *entity.User
}

func (s *authSub) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *authSub) run() {
	defer close(s.out)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.notify:
			select {
			case s.out <- s.latest():
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*entity.User, error) {
	if !strings.Contains(email, "@") {
		return nil, errs.NewAuthError(errs.AuthInvalidEmail, "malformed email address")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, errs.Backend("auth.signin", err)
	}
	if user == nil {
		return nil, errs.NewAuthError(errs.AuthWrongCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errs.NewAuthError(errs.AuthWrongCredentials, "invalid email or password")
	}

	c.setCurrent(user)
	c.log.Info("docstore", "signed in", map[string]interface{}{"user_id": user.Id})
	return c.copyCurrent(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*entity.User, error) {
	if !strings.Contains(email, "@") {
		return nil, errs.NewAuthError(errs.AuthInvalidEmail, "malformed email address")
	}
	if len(password) < 6 {
		return nil, errs.NewAuthError(errs.AuthWeakPassword, "password must be at least 6 characters")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, errs.Backend("auth.signup", err)
	}
	if existing != nil {
		return nil, errs.NewAuthError(errs.AuthEmailInUse, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.Backend("auth.signup", err)
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, errs.Backend("auth.signup", err)
	}

	c.setCurrent(user)
	c.log.Info("docstore", "signed up", map[string]interface{}{"user_id": user.Id})
	return c.copyCurrent(), nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.setCurrent(nil)
	c.log.Info("docstore", "signed out", nil)
	return nil
}

func (c *Client) AuthStates(ctx context.Context) (<-chan *entity.User, error) {
	sub := &authSub{
		ctx:    ctx,
		out:    make(chan *entity.User),
		notify: make(chan struct{}, 1),
		latest: c.copyCurrent,
	}

	c.mu.Lock()
	c.authSubs = append(c.authSubs, sub)
	c.mu.Unlock()

	go sub.run()
	sub.wake() // current state is pushed promptly
	return sub.out, nil
}

func (c *Client) setCurrent(user *entity.User) {
	c.mu.Lock()
	c.current = user
	subs := make([]*authSub, len(c.authSubs))
	copy(subs, c.authSubs)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.wake()
	}
}

func (c *Client) copyCurrent() *entity.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// currentUser is the session gate on every collection operation.
func (c *Client) currentUser() (*entity.User, error) {
	user := c.copyCurrent()
	if user == nil {
		return nil, errs.ErrNotAuthenticated
	}
	return user, nil
}

func (c *Client) Groups() backend.GroupCollection {
	return groupCollection{c: c}
}

func (c *Client) Notes() backend.NoteCollection {
	return noteCollection{c: c}
}

func (c *Client) Close() error {
	c.setCurrent(nil)
	return nil
}
