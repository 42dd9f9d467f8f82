package settings

import "github.com/okian/skillmatrix/internal/domain/model"

// State is the settings store state. Settings is seeded with
// model.DefaultSettings so lookups work before the first fetch.
type State struct {
	Settings *model.AppSettings
	Loading  bool
	Err      error

	// Requested is the sequence of the newest issued fetch, Settled the
	// sequence of the newest outcome applied.
	Requested uint64
	Settled   uint64
	Version   uint64
}

// Stale reports whether an outcome tagged seq was overtaken by a newer one.
// Untagged outcomes (seq 0) are never stale.
func (s State) Stale(seq uint64) bool { return seq != 0 && seq <= s.Settled }

// Action is a state transition request.
type Action interface{ action() }

// LoadStarted marks the settings fetch Seq as in flight.
type LoadStarted struct{ Seq uint64 }

// Replaced installs a full settings object returned by the backend for Seq.
type Replaced struct {
	Seq      uint64
	Settings model.AppSettings
}

// LoadFailed records a failed fetch. Existing settings are kept.
type LoadFailed struct {
	Seq uint64
	Err error
}

// LevelsPatched replaces only the level configuration.
type LevelsPatched struct{ Levels []model.LevelConfig }

// ThemePatched replaces only the theme.
type ThemePatched struct{ Theme model.Theme }

func (LoadStarted) action()   {}
func (Replaced) action()      {}
func (LoadFailed) action()    {}
func (LevelsPatched) action() {}
func (ThemePatched) action()  {}

// InitialState returns the seeded state.
func InitialState() State {
	d := model.DefaultSettings()
	return State{Settings: &d}
}

// Reduce applies a to s and returns the next state. It is pure.
func Reduce(s State, a Action) State {
	prev := s.Version
	switch a := a.(type) {
	case LoadStarted:
		if a.Seq != 0 && a.Seq <= s.Requested {
			return s
		}
		s.Requested = max(s.Requested, a.Seq)
		s.Loading = true
	case Replaced:
		if s.Stale(a.Seq) {
			return s
		}
		cfg := a.Settings.Clone()
		s.Settings = &cfg
		s.Err = nil
		s = s.settle(a.Seq)
	case LoadFailed:
		if s.Stale(a.Seq) {
			return s
		}
		s.Err = a.Err
		s = s.settle(a.Seq)
	case LevelsPatched:
		cfg := s.current()
		cfg.Levels = append([]model.LevelConfig(nil), a.Levels...)
		s.Settings = &cfg
	case ThemePatched:
		cfg := s.current()
		cfg.Theme = a.Theme
		s.Settings = &cfg
	default:
		return s
	}
	s.Version = prev + 1
	return s
}

func (s State) settle(seq uint64) State {
	if seq == 0 {
		s.Loading = false
		return s
	}
	s.Settled = seq
	s.Requested = max(s.Requested, seq)
	s.Loading = s.Settled < s.Requested
	return s
}

// current returns a copy of the settings in effect.
func (s State) current() model.AppSettings {
	if s.Settings == nil {
		return model.DefaultSettings()
	}
	return s.Settings.Clone()
}
