package service

import (
	"github.com/okian/skillmatrix/internal/adapters/session"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGateway sets the backend gateway.
func WithGateway(gw Gateway) Option {
	return func(s *Service) {
		s.gw = gw
	}
}

// WithSessionProvider sets how the starting session is resolved.
func WithSessionProvider(p session.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithSessionStorage sets where the session is persisted.
func WithSessionStorage(st session.Storage) Option {
	return func(s *Service) {
		if st != nil {
			s.storage = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultFilters sets the filters of the initial matrix load.
func WithDefaultFilters(f model.FilterOptions) Option {
	return func(s *Service) {
		s.defaultFilters = f
	}
}

// WithDefaultUpdatedBy attributes score updates made while nobody is signed in.
func WithDefaultUpdatedBy(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultUpdatedBy = name
		}
	}
}

// WithInitialLoad controls whether Start loads settings and the matrix.
func WithInitialLoad(enabled bool) Option {
	return func(s *Service) {
		s.initialLoad = enabled
	}
}
