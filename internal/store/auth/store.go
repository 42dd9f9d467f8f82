// Package auth tracks who is signed in and what their role permits.
//
// Permission checks here only decide which actions are offered; the backend
// enforces access on every request.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/okian/skillmatrix/internal/adapters/session"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/permission"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/okian/skillmatrix/pkg/metrics"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Listener observes state after each change.
type Listener func(State)

// Store owns the auth state and persists it through session storage.
type Store struct {
	storage session.Storage
	log     logger.Logger

	mu    sync.RWMutex
	state State

	subMu  sync.RWMutex
	subs   map[uint64]Listener
	nextID uint64
}

// New creates a store persisting through storage.
func New(storage session.Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, ErrNoStorage
	}
	s := &Store{storage: storage, state: InitialState(), subs: make(map[uint64]Listener)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("auth")
	}
	return s, nil
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, if any.
func (s *Store) User() (model.User, bool) {
	st := s.State()
	if st.User == nil {
		return model.User{}, false
	}
	return *st.User, true
}

// Username returns the signed-in username or "".
func (s *Store) Username() string {
	u, _ := s.User()
	return u.Username
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Dispatch applies a and notifies listeners.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	prev := s.state.Version
	s.state = Reduce(s.state, a)
	next := s.state
	s.mu.Unlock()
	if next.Version == prev {
		return next
	}

	s.subMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Restore resolves the starting session through p. Resolution failures
// leave the store anonymous and are returned.
func (s *Store) Restore(ctx context.Context, p session.Provider) error {
	s.Dispatch(LoadingSet{Loading: true})
	r, err := p.Resolve(ctx)
	if err != nil {
		s.Dispatch(UserSet{})
		if errors.Is(err, session.ErrTokenExpired) {
			s.log.Info(ctx, "stored session expired")
			return nil
		}
		s.log.Warn(ctx, "failed to restore session", logger.Error(err))
		return err
	}
	if r.Anonymous() {
		s.Dispatch(UserSet{})
		return nil
	}
	if r.Token != "" {
		if err := s.storage.Save(sessionFor(*r.User, r.Token)); err != nil {
			s.log.Warn(ctx, "failed to persist session", logger.Error(err))
		}
	}
	s.Dispatch(UserSet{User: r.User})
	s.log.Info(ctx, "session restored",
		logger.String("username", r.User.Username),
		logger.String("role", string(r.User.Role)))
	return nil
}

// Login persists the session and marks user as signed in.
func (s *Store) Login(ctx context.Context, username string, role model.Role, token string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, ErrNoUsername
	}
	role, err := model.ParseRole(string(role))
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Username: username, Role: role}
	if c, ok := session.ParseClaims(token); ok && c.UserID != 0 {
		u.ID = int64(c.UserID)
	}
	if err := s.storage.Save(sessionFor(u, token)); err != nil {
		return model.User{}, err
	}
	s.Dispatch(LoggedIn{User: u})
	s.log.Info(ctx, "signed in", logger.String("username", u.Username), logger.String("role", string(u.Role)))
	return u, nil
}

// Logout clears the persisted session and the user.
func (s *Store) Logout(ctx context.Context) error {
	err := s.storage.Clear()
	s.Dispatch(LoggedOut{})
	s.log.Info(ctx, "signed out")
	return err
}

// Invalidate drops the session after the backend rejected it and flags
// that a new login is required.
func (s *Store) Invalidate(ctx context.Context) {
	if err := s.storage.Clear(); err != nil {
		s.log.Warn(ctx, "failed to clear session", logger.Error(err))
	}
	metrics.RecordSessionInvalidated()
	s.Dispatch(SessionRejected{})
	s.log.Warn(ctx, "session rejected by backend; login required")
}

// HasPermission reports whether the signed-in user's role grants p.
// Anonymous users and unknown permissions are denied.
func (s *Store) HasPermission(p permission.Permission) bool {
	u, ok := s.User()
	if !ok {
		return false
	}
	return permission.Allows(u.Role, p)
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *Store) IsAdmin() bool { return s.hasRole(model.RoleAdmin) }

// IsManager reports whether the signed-in user is a manager.
func (s *Store) IsManager() bool { return s.hasRole(model.RoleManager) }

// IsEmployee reports whether the signed-in user is an employee.
func (s *Store) IsEmployee() bool { return s.hasRole(model.RoleEmployee) }

func (s *Store) hasRole(r model.Role) bool {
	u, ok := s.User()
	return ok && u.Role == r
}

func sessionFor(u model.User, token string) session.Session {
	return session.Session{Token: token, ID: u.ID, Username: u.Username, Role: u.Role}
}
