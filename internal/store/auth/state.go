package auth

import "github.com/okian/skillmatrix/internal/domain/model"

// State is the auth store state.
type State struct {
	User            *model.User
	IsAuthenticated bool
	Loading         bool
	// LoginRequired is set when the backend rejected the session and the
	// presentation layer should send the user to a login entry point.
	LoginRequired bool
	Version       uint64
}

// Action is a state transition request.
type Action interface{ action() }

// LoadingSet toggles the loading flag.
type LoadingSet struct{ Loading bool }

// LoggedIn installs an authenticated user.
type LoggedIn struct{ User model.User }

// LoggedOut clears the user.
type LoggedOut struct{}

// UserSet installs a restored user, or none.
type UserSet struct{ User *model.User }

// SessionRejected clears the user and asks for a new login.
type SessionRejected struct{}

func (LoadingSet) action()      {}
func (LoggedIn) action()        {}
func (LoggedOut) action()       {}
func (UserSet) action()         {}
func (SessionRejected) action() {}

// InitialState is loading until a session has been resolved.
func InitialState() State {
	return State{Loading: true}
}

// Reduce applies a to s and returns the next state. It is pure.
func Reduce(s State, a Action) State {
	prev := s.Version
	switch a := a.(type) {
	case LoadingSet:
		s.Loading = a.Loading
	case LoggedIn:
		u := a.User
		s = State{User: &u, IsAuthenticated: true}
	case LoggedOut:
		s = State{}
	case UserSet:
		s = State{}
		if a.User != nil {
			u := *a.User
			s.User = &u
			s.IsAuthenticated = true
		}
	case SessionRejected:
		s = State{LoginRequired: true}
	default:
		return s
	}
	s.Version = prev + 1
	return s
}
