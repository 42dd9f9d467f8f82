package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/okian/skillmatrix/internal/domain/model"
)

// Resolution is the outcome of resolving a session: Anonymous when User is nil.
type Resolution struct {
	User  *model.User
	Token string
}

// Anonymous reports whether nobody is signed in.
func (r Resolution) Anonymous() bool { return r.User == nil }

// Authenticated builds a signed-in Resolution.
func Authenticated(u model.User, token string) Resolution {
	return Resolution{User: &u, Token: token}
}

// Provider decides who is signed in when the dashboard starts.
type Provider interface {
	Resolve(ctx context.Context) (Resolution, error)
}

// AnonymousProvider never signs anyone in.
type AnonymousProvider struct{}

// Resolve implements Provider.
func (AnonymousProvider) Resolve(context.Context) (Resolution, error) { return Resolution{}, nil }

// StaticProvider always resolves to a fixed user. Intended for local development.
type StaticProvider struct {
	User  model.User
	Token string
}

// Resolve implements Provider.
func (p StaticProvider) Resolve(context.Context) (Resolution, error) {
	return Authenticated(p.User, p.Token), nil
}

// Claims are the identity claims read from a bearer token.
type Claims struct {
	UserID   json64 `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// json64 accepts a number or a numeric string.
type json64 int64

func (j *json64) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*j = json64(n)
	return nil
}

// StoredProvider resolves the persisted session. When the token is a JWT its
// claims fill in or override the stored identity. Signatures are not
// verified; the backend remains the authority on every request.
type StoredProvider struct {
	store Storage
	now   func() time.Time
}

// NewStoredProvider creates a provider backed by store.
func NewStoredProvider(store Storage) *StoredProvider {
	return &StoredProvider{store: store, now: time.Now}
}

// Resolve implements Provider. A missing or expired session is Anonymous.
// An expired session is also cleared.
func (p *StoredProvider) Resolve(_ context.Context) (Resolution, error) {
	s, err := p.store.Load()
	if errors.Is(err, ErrNoSession) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if s.Token != "" {
		c, ok := ParseClaims(s.Token)
		if ok {
			if c.ExpiresAt != nil && c.ExpiresAt.Before(p.now()) {
				_ = p.store.Clear()
				return Resolution{}, ErrTokenExpired
			}
			s = merge(s, c)
		}
	}

	if s.Username == "" {
		return Resolution{}, nil
	}
	role, err := model.ParseRole(string(s.Role))
	if err != nil {
		return Resolution{}, err
	}
	s.Role = role
	return Authenticated(s.User(), s.Token), nil
}

// ParseClaims reads claims from token without verifying the signature.
// ok is false when token is not a JWT.
func ParseClaims(token string) (Claims, bool) {
	var c Claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, false
	}
	return c, true
}

func merge(s Session, c Claims) Session {
	if c.Username != "" {
		s.Username = c.Username
	} else if s.Username == "" && c.Subject != "" {
		s.Username = c.Subject
	}
	if c.Role != "" {
		s.Role = model.Role(c.Role)
	}
	if c.UserID != 0 {
		s.ID = int64(c.UserID)
	}
	return s
}
