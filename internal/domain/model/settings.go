package model

import "strconv"

// FallbackLevelColor is the neutral color used for levels without configuration.
const FallbackLevelColor = "#6b7280"

// Theme selects the dashboard palette.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Completion methods understood by the backend.
const (
	CompletionAverage  = "average"
	CompletionWeighted = "weighted"
)

// LevelConfig maps a numeric level to its display label and color.
type LevelConfig struct {
	Level       int    `json:"level"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// AppSettings is the global presentation and business configuration.
type AppSettings struct {
	Levels             []LevelConfig `json:"levels"`
	Theme              Theme         `json:"theme"`
	DefaultTargetLevel int           `json:"default_target_level"`
	CompletionMethod   string        `json:"completion_method"`
	ShowAvatars        bool          `json:"show_avatars"`
	CompactView        bool          `json:"compact_view"`
}

// DefaultSettings returns the configuration used before the first fetch completes.
func DefaultSettings() AppSettings {
	return AppSettings{
		Levels: []LevelConfig{
			{Level: 0, Label: "Not Trained", Color: "#ef4444", Description: "No training completed"},
			{Level: 1, Label: "In Progress", Color: "#f59e0b", Description: "Training in progress"},
			{Level: 2, Label: "Complete", Color: "#10b981", Description: "Training completed"},
		},
		Theme:              ThemeLight,
		DefaultTargetLevel: 2,
		CompletionMethod:   CompletionAverage,
		ShowAvatars:        true,
		CompactView:        false,
	}
}

// LevelConfig returns the configuration whose level equals level exactly.
func (s AppSettings) LevelConfig(level int) (LevelConfig, bool) {
	for _, l := range s.Levels {
		if l.Level == level {
			return l, true
		}
	}
	return LevelConfig{}, false
}

// LevelColor returns the configured color or FallbackLevelColor.
func (s AppSettings) LevelColor(level int) string {
	if l, ok := s.LevelConfig(level); ok && l.Color != "" {
		return l.Color
	}
	return FallbackLevelColor
}

// LevelLabel returns the configured label or "Level {n}".
func (s AppSettings) LevelLabel(level int) string {
	if l, ok := s.LevelConfig(level); ok && l.Label != "" {
		return l.Label
	}
	return FallbackLevelLabel(level)
}

// MaxLevel returns the highest configured level, or 0 with no levels.
func (s AppSettings) MaxLevel() int {
	top := 0
	for i, l := range s.Levels {
		if i == 0 || l.Level > top {
			top = l.Level
		}
	}
	return top
}

// FallbackLevelLabel synthesizes a label for an unconfigured level.
func FallbackLevelLabel(level int) string {
	return "Level " + strconv.Itoa(level)
}

// Clone returns a deep copy of s.
func (s AppSettings) Clone() AppSettings {
	out := s
	if s.Levels != nil {
		out.Levels = append([]LevelConfig(nil), s.Levels...)
	}
	return out
}

// SettingsPatch is a partial AppSettings for PUT /settings/. Nil fields are not sent.
type SettingsPatch struct {
	Levels             []LevelConfig `json:"levels,omitempty"`
	Theme              *Theme        `json:"theme,omitempty"`
	DefaultTargetLevel *int          `json:"default_target_level,omitempty"`
	CompletionMethod   *string       `json:"completion_method,omitempty"`
	ShowAvatars        *bool         `json:"show_avatars,omitempty"`
	CompactView        *bool         `json:"compact_view,omitempty"`
}

// ThemeRequest is the body of PUT /settings/theme/.
type ThemeRequest struct {
	Theme Theme `json:"theme"`
}
