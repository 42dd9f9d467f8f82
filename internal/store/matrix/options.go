package matrix

import (
	"context"
	"time"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
)

// DefaultUpdatedBy attributes score updates when no attribution is configured.
const DefaultUpdatedBy = "current_user"

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

// WithFilters sets the filters used before SetFilters is called.
func WithFilters(f model.FilterOptions) Option {
	return func(s *Store) {
		s.state.Filters = f
	}
}

// WithAttribution sets the function naming who performed a score update.
func WithAttribution(fn func(ctx context.Context) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.attribution = fn
		}
	}
}

// WithClock sets the time source for client-side timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
