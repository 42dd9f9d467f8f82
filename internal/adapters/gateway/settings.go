package gateway

import (
	"context"
	"net/http"

	"github.com/okian/skillmatrix/internal/domain/model"
)

// GetSettings returns the full settings object.
func (c *Client) GetSettings(ctx context.Context) (model.AppSettings, error) {
	var out model.AppSettings
	err := c.call(ctx, "settings.get", http.MethodGet, "/settings/", nil, nil, &out)
	return out, err
}

// UpdateSettings sends a partial update and returns the server's full settings.
func (c *Client) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.AppSettings, error) {
	var out model.AppSettings
	err := c.call(ctx, "settings.update", http.MethodPut, "/settings/", nil, patch, &out)
	return out, err
}

// GetLevels returns the configured levels.
func (c *Client) GetLevels(ctx context.Context) ([]model.LevelConfig, error) {
	var out []model.LevelConfig
	if err := c.call(ctx, "settings.levels", http.MethodGet, "/settings/levels", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLevels replaces the level configuration. Any response body is ignored.
func (c *Client) UpdateLevels(ctx context.Context, levels []model.LevelConfig) error {
	if levels == nil {
		levels = []model.LevelConfig{}
	}
	_, err := c.send(ctx, "settings.update_levels", http.MethodPut, "/settings/levels", nil, levels)
	return err
}

// GetTheme returns the current theme.
func (c *Client) GetTheme(ctx context.Context) (model.Theme, error) {
	var out model.Theme
	err := c.call(ctx, "settings.theme", http.MethodGet, "/settings/theme", nil, nil, &out)
	return out, err
}

// UpdateTheme sets the theme. Any response body is ignored.
func (c *Client) UpdateTheme(ctx context.Context, theme model.Theme) error {
	_, err := c.send(ctx, "settings.update_theme", http.MethodPut, "/settings/theme/", nil, model.ThemeRequest{Theme: theme})
	return err
}
