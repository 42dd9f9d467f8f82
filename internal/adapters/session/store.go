// Package session persists the dashboard session and resolves who is signed in.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/skillmatrix/internal/domain/model"
)

// Session is the persisted login state.
type Session struct {
	Token    string     `json:"token,omitempty"`
	ID       int64      `json:"id,omitempty"`
	Username string     `json:"username,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

// User returns the identity held by s.
func (s Session) User() model.User {
	return model.User{ID: s.ID, Username: s.Username, Role: s.Role}
}

// Storage persists a single session.
type Storage interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
	Token() string
}

// FileStore keeps the session as a 0600 JSON file.
type FileStore struct {
	path string

	mu     sync.RWMutex
	cached *Session
}

// DefaultPath returns $HOME/.skillmatrix/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skillmatrix", "session.json"), nil
}

// NewFileStore creates a store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// Load reads the session. A missing file is ErrNoSession.
func (f *FileStore) Load() (Session, error) {
	f.mu.RLock()
	if f.cached != nil {
		s := *f.cached
		f.mu.RUnlock()
		return s, nil
	}
	f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}

	f.mu.Lock()
	f.cached = &s
	f.mu.Unlock()
	return s, nil
}

// Save writes s, creating the parent directory.
func (f *FileStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	f.mu.Lock()
	f.cached = &s
	f.mu.Unlock()
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Token returns the stored bearer token or "".
func (f *FileStore) Token() string {
	s, err := f.Load()
	if err != nil {
		return ""
	}
	return s.Token
}

// MemoryStore is an in-process Storage.
type MemoryStore struct {
	mu sync.RWMutex
	s  *Session
}

// Load implements Storage.
func (m *MemoryStore) Load() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.s == nil {
		return Session{}, ErrNoSession
	}
	return *m.s, nil
}

// Save implements Storage.
func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	m.s = &s
	m.mu.Unlock()
	return nil
}

// Clear implements Storage.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.s = nil
	m.mu.Unlock()
	return nil
}

// Token implements Storage.
func (m *MemoryStore) Token() string {
	s, err := m.Load()
	if err != nil {
		return ""
	}
	return s.Token
}
