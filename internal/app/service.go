// Package service wires the matrix, settings and auth stores to the backend
// gateway and gates mutations on the signed-in user's permissions.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/skillmatrix/internal/adapters/gateway"
	"github.com/okian/skillmatrix/internal/adapters/mq/signal"
	"github.com/okian/skillmatrix/internal/adapters/session"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/permission"
	"github.com/okian/skillmatrix/internal/domain/progress"
	"github.com/okian/skillmatrix/internal/store/auth"
	"github.com/okian/skillmatrix/internal/store/matrix"
	"github.com/okian/skillmatrix/internal/store/settings"
	"github.com/okian/skillmatrix/pkg/logger"
)

// Gateway is the backend API surface the service uses.
type Gateway interface {
	matrix.Gateway
	settings.Gateway

	CreateEmployee(ctx context.Context, req model.CreateEmployeeRequest) (model.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, req model.UpdateEmployeeRequest) (model.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	CreateColumn(ctx context.Context, req model.CreateTrainingColumnRequest) (model.TrainingColumn, error)
	UpdateColumn(ctx context.Context, id string, req model.UpdateTrainingColumnRequest) (model.TrainingColumn, error)
	DeleteColumn(ctx context.Context, id string) error
	ReorderColumn(ctx context.Context, id string, newOrder int) error
	GetAnalytics(ctx context.Context, department string) (model.AnalyticsData, error)
	ExportCSV(ctx context.Context, o model.ExportOptions) ([]byte, error)
	ExportJSON(ctx context.Context, o model.ExportOptions) (model.MatrixData, error)
}

// unauthorizedNotifier is implemented by gateways that report 401 responses.
type unauthorizedNotifier interface {
	SetUnauthorizedHandler(fn gateway.UnauthorizedFunc)
}

// Service is the dashboard state layer.
type Service struct {
	mu sync.RWMutex

	gw       Gateway
	provider session.Provider
	storage  session.Storage

	matrix   *matrix.Store
	settings *settings.Store
	auth     *auth.Store
	bus      *signal.Bus
	progress *progress.Calculator

	defaultFilters   model.FilterOptions
	defaultUpdatedBy string
	initialLoad      bool

	started     bool
	cancel      context.CancelFunc
	unsubscribe func()

	logger logger.Logger
}

// New constructs a Service. A gateway is required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		defaultFilters:   model.DefaultFilters(),
		defaultUpdatedBy: matrix.DefaultUpdatedBy,
		initialLoad:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gw == nil {
		return nil, ErrNoGateway
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.storage == nil {
		s.storage = &session.MemoryStore{}
	}
	if s.provider == nil {
		s.provider = session.NewStoredProvider(s.storage)
	}

	var err error
	if s.auth, err = auth.New(s.storage, auth.WithLogger(s.logger.Named("auth"))); err != nil {
		return nil, err
	}
	if s.settings, err = settings.New(s.gw, settings.WithLogger(s.logger.Named("settings"))); err != nil {
		return nil, err
	}
	s.matrix, err = matrix.New(s.gw,
		matrix.WithLogger(s.logger.Named("matrix")),
		matrix.WithFilters(s.defaultFilters),
		matrix.WithAttribution(s.attribution),
	)
	if err != nil {
		return nil, err
	}
	s.bus = signal.New(signal.WithLogger(s.logger.Named("signal")))
	s.progress = progress.New()
	return s, nil
}

// Start resolves the session, loads settings and the matrix, and starts
// listening for reload signals. Load failures are recorded in store state
// and logged; they do not fail Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting skill matrix service...")

	if n, ok := s.gw.(unauthorizedNotifier); ok {
		n.SetUnauthorizedHandler(s.onUnauthorized)
	}

	busCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.bus.Start(busCtx)
	s.unsubscribe = s.bus.Subscribe(signal.TopicMatrixReload, func(ctx context.Context, sig signal.Signal) {
		if err := s.matrix.Reload(ctx); err != nil {
			s.logger.Warn(ctx, "reload after signal failed",
				logger.String("reason", sig.Reason),
				logger.Error(err))
		}
	})

	if err := s.auth.Restore(ctx, s.provider); err != nil {
		s.logger.Warn(ctx, "continuing without a session", logger.Error(err))
	}

	if s.initialLoad {
		if err := s.settings.LoadSettings(ctx); err != nil {
			s.logger.Warn(ctx, "using default settings", logger.Error(err))
		}
		if err := s.matrix.LoadMatrix(ctx, nil); err != nil {
			s.logger.Warn(ctx, "initial matrix load failed", logger.Error(err))
		}
	}

	s.started = true
	user, _ := s.auth.User()
	s.logger.Info(ctx, "skill matrix service started",
		logger.String("user", user.Username),
		logger.Bool("authenticated", s.auth.State().IsAuthenticated))
	return nil
}

// Stop stops listening for reload signals.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping skill matrix service...")
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}
	_ = s.bus.Close()
	// A closed bus cannot be restarted.
	s.bus = signal.New(signal.WithLogger(s.logger.Named("signal")))
	s.started = false
	s.logger.Info(context.Background(), "skill matrix service stopped")
}

// Matrix returns the matrix store.
func (s *Service) Matrix() *matrix.Store { return s.matrix }

// Settings returns the settings store.
func (s *Service) Settings() *settings.Store { return s.settings }

// Auth returns the auth store.
func (s *Service) Auth() *auth.Store { return s.auth }

// MatrixState returns the current matrix store state.
func (s *Service) MatrixState() matrix.State { return s.matrix.State() }

// Level returns the display configuration of level, falling back to a
// synthesized label and a neutral color for unconfigured levels.
func (s *Service) Level(level int) model.LevelConfig {
	if cfg, ok := s.settings.LevelConfig(level); ok {
		return cfg
	}
	return model.LevelConfig{
		Level: level,
		Label: s.settings.LevelLabel(level),
		Color: s.settings.LevelColor(level),
	}
}

// Snapshot returns the loaded matrix, or nil before the first load.
func (s *Service) Snapshot() *model.MatrixData { return s.matrix.Snapshot() }

// SetFilters stores f and reloads the matrix with it.
func (s *Service) SetFilters(ctx context.Context, f model.FilterOptions) error {
	return s.matrix.SetFilters(ctx, f)
}

// Reload reloads the matrix with the stored filters.
func (s *Service) Reload(ctx context.Context) error {
	return s.matrix.Reload(ctx)
}

// Progress summarizes every employee in the loaded matrix.
func (s *Service) Progress() []progress.Summary {
	return s.progress.SummarizeAll(s.matrix.Snapshot())
}

// UpdateScore records level and notes for (employeeID, columnID).
func (s *Service) UpdateScore(ctx context.Context, employeeID int64, columnID string, level int, notes string) (model.Score, error) {
	if err := s.require(permission.Write, "update score"); err != nil {
		return model.Score{}, err
	}
	cfg := s.settings.Settings()
	if len(cfg.Levels) > 0 && level > cfg.MaxLevel() {
		return model.Score{}, fmt.Errorf("%w: level %d exceeds the highest configured level %d", model.ErrValidation, level, cfg.MaxLevel())
	}
	return s.matrix.UpdateScore(ctx, employeeID, columnID, level, notes)
}

// CreateEmployee creates an employee and requests a matrix reload.
func (s *Service) CreateEmployee(ctx context.Context, req model.CreateEmployeeRequest) (model.Employee, error) {
	if err := s.require(permission.Write, "create employee"); err != nil {
		return model.Employee{}, err
	}
	e, err := s.gw.CreateEmployee(ctx, req)
	if err != nil {
		return model.Employee{}, s.mutationFailed(ctx, "create employee", err)
	}
	s.requestReload(ctx, "employee created")
	return e, nil
}

// UpdateEmployee updates an employee and requests a matrix reload.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, req model.UpdateEmployeeRequest) (model.Employee, error) {
	if err := s.require(permission.Write, "update employee"); err != nil {
		return model.Employee{}, err
	}
	e, err := s.gw.UpdateEmployee(ctx, id, req)
	if err != nil {
		return model.Employee{}, s.mutationFailed(ctx, "update employee", err)
	}
	s.requestReload(ctx, "employee updated")
	return e, nil
}

// DeleteEmployee deletes an employee and requests a matrix reload.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.require(permission.Delete, "delete employee"); err != nil {
		return err
	}
	if err := s.gw.DeleteEmployee(ctx, id); err != nil {
		return s.mutationFailed(ctx, "delete employee", err)
	}
	s.requestReload(ctx, "employee deleted")
	return nil
}

// CreateColumn creates a training column and requests a matrix reload.
func (s *Service) CreateColumn(ctx context.Context, req model.CreateTrainingColumnRequest) (model.TrainingColumn, error) {
	if err := s.require(permission.Write, "create column"); err != nil {
		return model.TrainingColumn{}, err
	}
	c, err := s.gw.CreateColumn(ctx, req)
	if err != nil {
		return model.TrainingColumn{}, s.mutationFailed(ctx, "create column", err)
	}
	s.requestReload(ctx, "column created")
	return c, nil
}

// UpdateColumn updates a training column and requests a matrix reload.
func (s *Service) UpdateColumn(ctx context.Context, id string, req model.UpdateTrainingColumnRequest) (model.TrainingColumn, error) {
	if err := s.require(permission.Write, "update column"); err != nil {
		return model.TrainingColumn{}, err
	}
	c, err := s.gw.UpdateColumn(ctx, id, req)
	if err != nil {
		return model.TrainingColumn{}, s.mutationFailed(ctx, "update column", err)
	}
	s.requestReload(ctx, "column updated")
	return c, nil
}

// DeleteColumn deletes a training column and requests a matrix reload.
func (s *Service) DeleteColumn(ctx context.Context, id string) error {
	if err := s.require(permission.Delete, "delete column"); err != nil {
		return err
	}
	if err := s.gw.DeleteColumn(ctx, id); err != nil {
		return s.mutationFailed(ctx, "delete column", err)
	}
	s.requestReload(ctx, "column deleted")
	return nil
}

// ReorderColumn moves a column and requests a matrix reload.
func (s *Service) ReorderColumn(ctx context.Context, id string, newOrder int) error {
	if err := s.require(permission.Write, "reorder column"); err != nil {
		return err
	}
	if err := s.gw.ReorderColumn(ctx, id, newOrder); err != nil {
		return s.mutationFailed(ctx, "reorder column", err)
	}
	s.requestReload(ctx, "column reordered")
	return nil
}

// UpdateSettings sends a partial settings update.
func (s *Service) UpdateSettings(ctx context.Context, patch model.SettingsPatch) error {
	if err := s.require(permission.ManageSettings, "update settings"); err != nil {
		return err
	}
	return s.settings.UpdateSettings(ctx, patch)
}

// UpdateLevels replaces the level configuration.
func (s *Service) UpdateLevels(ctx context.Context, levels []model.LevelConfig) error {
	if err := s.require(permission.ManageSettings, "update levels"); err != nil {
		return err
	}
	return s.settings.UpdateLevels(ctx, levels)
}

// UpdateTheme sets the theme.
func (s *Service) UpdateTheme(ctx context.Context, theme model.Theme) error {
	if err := s.require(permission.ManageSettings, "update theme"); err != nil {
		return err
	}
	return s.settings.UpdateTheme(ctx, theme)
}

// Analytics fetches normalized analytics for department ("" for all).
func (s *Service) Analytics(ctx context.Context, department string) (model.AnalyticsData, error) {
	return s.gw.GetAnalytics(ctx, department)
}

// ExportCSV returns the CSV export.
func (s *Service) ExportCSV(ctx context.Context, o model.ExportOptions) ([]byte, error) {
	return s.gw.ExportCSV(ctx, o)
}

// ExportJSON returns the JSON export.
func (s *Service) ExportJSON(ctx context.Context, o model.ExportOptions) (model.MatrixData, error) {
	return s.gw.ExportJSON(ctx, o)
}

// Login signs in username with role. token is sent as the bearer token.
func (s *Service) Login(ctx context.Context, username string, role model.Role, token string) (model.User, error) {
	return s.auth.Login(ctx, username, role, token)
}

// Logout signs out.
func (s *Service) Logout(ctx context.Context) error {
	return s.auth.Logout(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	started := s.started
	pending := s.bus.Len()
	s.mu.RUnlock()

	ms := s.matrix.State()
	as := s.auth.State()
	stats := map[string]any{
		"started":         started,
		"authenticated":   as.IsAuthenticated,
		"login_required":  as.LoginRequired,
		"loading":         ms.Loading,
		"requested_seq":   ms.Requested,
		"settled_seq":     ms.Settled,
		"filters":         ms.Filters,
		"pending_signals": pending,
	}
	if as.User != nil {
		stats["username"] = as.User.Username
		stats["role"] = string(as.User.Role)
	}
	if ms.Err != nil {
		stats["last_error"] = ms.Err.Error()
	}
	if ms.Data != nil {
		stats["employees"] = len(ms.Data.Employees)
		stats["columns"] = len(ms.Data.Columns)
		stats["scores"] = len(ms.Data.Scores)
	}
	return stats
}

func (s *Service) require(p permission.Permission, op string) error {
	if s.auth.HasPermission(p) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %q", ErrForbidden, op, p)
}

func (s *Service) mutationFailed(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "mutation failed", logger.String("op", op), logger.Error(err))
	return err
}

func (s *Service) requestReload(ctx context.Context, reason string) {
	s.mu.RLock()
	started, bus := s.started, s.bus
	s.mu.RUnlock()
	if !started {
		// Without a running dispatcher the reload happens inline.
		if err := s.matrix.Reload(ctx); err != nil {
			s.logger.Warn(ctx, "reload failed", logger.String("reason", reason), logger.Error(err))
		}
		return
	}
	err := bus.Publish(ctx, signal.Signal{Topic: signal.TopicMatrixReload, Reason: reason})
	if err != nil && !errors.Is(err, signal.ErrDropped) {
		s.logger.Warn(ctx, "failed to publish reload", logger.String("reason", reason), logger.Error(err))
	}
}

func (s *Service) attribution(context.Context) string {
	if name := s.auth.Username(); name != "" {
		return name
	}
	return s.defaultUpdatedBy
}

func (s *Service) onUnauthorized(ctx context.Context, err *gateway.Error) {
	s.logger.Warn(ctx, "backend rejected the session", logger.String("op", err.Op))
	s.auth.Invalidate(ctx)
}
