// Package settings holds the level and theme configuration and the level
// lookups every rendering consumer relies on.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/okian/skillmatrix/pkg/metrics"
)

// Gateway is the part of the backend API the store needs.
type Gateway interface {
	GetSettings(ctx context.Context) (model.AppSettings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.AppSettings, error)
	UpdateLevels(ctx context.Context, levels []model.LevelConfig) error
	UpdateTheme(ctx context.Context, theme model.Theme) error
}

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

// Store owns the settings state.
type Store struct {
	gw  Gateway
	log logger.Logger

	mu      sync.RWMutex
	state   State
	lastSeq uint64

	subMu  sync.RWMutex
	subs   map[uint64]Listener
	nextID uint64
}

// New creates a store seeded with the default settings.
func New(gw Gateway, opts ...Option) (*Store, error) {
	if gw == nil {
		return nil, ErrNoGateway
	}
	s := &Store{gw: gw, state: InitialState(), subs: make(map[uint64]Listener)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("settings")
	}
	return s, nil
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Settings returns a copy of the settings in effect.
func (s *Store) Settings() model.AppSettings {
	return s.State().current()
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

// issue returns the next fetch sequence.
func (s *Store) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	return s.lastSeq
}

// LoadSettings replaces the settings with the backend's. On failure the
// previous settings stay in effect and the error is recorded and returned.
// An outcome overtaken by a newer load or update is discarded and reported
// as success.
func (s *Store) LoadSettings(ctx context.Context) error {
	seq := s.issue()
	s.Dispatch(LoadStarted{Seq: seq})
	cfg, err := s.gw.GetSettings(ctx)
	if err != nil {
		if st := s.Dispatch(LoadFailed{Seq: seq, Err: err}); st.Settled != seq {
			s.log.Debug(ctx, "discarding stale settings failure", logger.Uint64("seq", seq))
			return nil
		}
		s.log.Error(ctx, "failed to load settings", logger.Error(err))
		return fmt.Errorf("load settings: %w", err)
	}
	if st := s.Dispatch(Replaced{Seq: seq, Settings: cfg}); st.Settled != seq {
		s.log.Debug(ctx, "discarding stale settings response", logger.Uint64("seq", seq))
	}
	return nil
}

// UpdateSettings sends patch and installs the full settings the backend returns.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) error {
	cfg, err := s.gw.UpdateSettings(ctx, patch)
	if err != nil {
		metrics.RecordSettingsUpdate("settings", metrics.OutcomeFailed)
		s.log.Error(ctx, "failed to update settings", logger.Error(err))
		return err
	}
	metrics.RecordSettingsUpdate("settings", metrics.OutcomeSuccess)
	// Tagged so a fetch issued before the update cannot overwrite it.
	s.Dispatch(Replaced{Seq: s.issue(), Settings: cfg})
	return nil
}

// UpdateLevels sends levels and, on success, patches only the levels locally.
func (s *Store) UpdateLevels(ctx context.Context, levels []model.LevelConfig) error {
	if err := s.gw.UpdateLevels(ctx, levels); err != nil {
		metrics.RecordSettingsUpdate("levels", metrics.OutcomeFailed)
		s.log.Error(ctx, "failed to update levels", logger.Error(err))
		return err
	}
	metrics.RecordSettingsUpdate("levels", metrics.OutcomeSuccess)
	s.Dispatch(LevelsPatched{Levels: levels})
	return nil
}

// UpdateTheme sends theme and, on success, patches only the theme locally.
func (s *Store) UpdateTheme(ctx context.Context, theme model.Theme) error {
	if err := s.gw.UpdateTheme(ctx, theme); err != nil {
		metrics.RecordSettingsUpdate("theme", metrics.OutcomeFailed)
		s.log.Error(ctx, "failed to update theme", logger.Error(err))
		return err
	}
	metrics.RecordSettingsUpdate("theme", metrics.OutcomeSuccess)
	s.Dispatch(ThemePatched{Theme: theme})
	return nil
}

// LevelConfig returns the configuration for exactly level, if any.
func (s *Store) LevelConfig(level int) (model.LevelConfig, bool) {
	return s.Settings().LevelConfig(level)
}

// LevelColor returns the color for level, or the neutral fallback.
func (s *Store) LevelColor(level int) string {
	return s.Settings().LevelColor(level)
}

// LevelLabel returns the label for level, or "Level {n}".
func (s *Store) LevelLabel(level int) string {
	return s.Settings().LevelLabel(level)
}
