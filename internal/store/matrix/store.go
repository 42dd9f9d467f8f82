// Package matrix holds the loaded training matrix and reconciles it with the backend.
//
// Loads are tagged with a monotonically increasing sequence number; a
// response older than the last applied one is discarded, so overlapping
// filter changes settle on the newest request regardless of arrival order.
// Score updates are write-then-reflect: the local snapshot changes only
// after the backend accepted the upsert.
package matrix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/okian/skillmatrix/pkg/metrics"
)

// Gateway is the part of the backend API the store needs.
type Gateway interface {
	GetMatrix(ctx context.Context, f model.FilterOptions) (model.MatrixData, error)
	UpsertScore(ctx context.Context, req model.CreateScoreRequest) (model.Score, error)
}

// Listener observes state after each change.
type Listener func(State)

// Store owns the canonical in-memory matrix snapshot.
type Store struct {
	gw          Gateway
	log         logger.Logger
	attribution func(ctx context.Context) string
	now         func() time.Time

	mu      sync.RWMutex
	state   State
	lastSeq uint64

	subMu  sync.RWMutex
	subs   map[uint64]Listener
	nextID uint64
}

// New creates a store over gw.
func New(gw Gateway, opts ...Option) (*Store, error) {
	if gw == nil {
		return nil, ErrNoGateway
	}
	s := &Store{
		gw:          gw,
		attribution: func(context.Context) string { return DefaultUpdatedBy },
		now:         time.Now,
		state:       InitialState(model.DefaultFilters()),
		subs:        make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("matrix")
	}
	return s, nil
}

// State returns the current state. Data is shared and must be treated as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the loaded matrix or nil before the first successful load.
func (s *Store) Snapshot() *model.MatrixData {
	return s.State().Data
}

// Filters returns the stored filters.
func (s *Store) Filters() model.FilterOptions {
	return s.State().Filters
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

// Dispatch applies a to the state and notifies listeners when it changed.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	prev := s.state.Version
	s.state = Reduce(s.state, a)
	next := s.state
	s.mu.Unlock()

	if next.Version != prev {
		s.notify(next)
	}
	return next
}

func (s *Store) notify(st State) {
	s.subMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// LoadMatrix fetches a fresh snapshot for filters, or for the stored filters
// when filters is nil. A failure is recorded in State.Err, leaves previously
// loaded data in place and is also returned. A response overtaken by a newer
// load is discarded and reported as success.
func (s *Store) LoadMatrix(ctx context.Context, filters *model.FilterOptions) error {
	return s.load(ctx, filters, false)
}

// SetFilters stores f and reloads with it. Filters are never applied to
// already-loaded data.
func (s *Store) SetFilters(ctx context.Context, f model.FilterOptions) error {
	return s.load(ctx, &f, true)
}

// Reload reloads with the stored filters.
func (s *Store) Reload(ctx context.Context) error {
	return s.load(ctx, nil, false)
}

// begin issues the next load sequence and, when keep is set, stores filters
// under the same lock.
func (s *Store) begin(filters *model.FilterOptions, keep bool) (uint64, model.FilterOptions) {
	s.mu.Lock()
	s.lastSeq++
	seq := s.lastSeq
	f := s.state.Filters
	if filters != nil {
		f = *filters
	}
	started := LoadStarted{Seq: seq}
	if keep {
		started.Filters = &f
	}
	prev := s.state.Version
	s.state = Reduce(s.state, started)
	next := s.state
	s.mu.Unlock()

	if next.Version != prev {
		s.notify(next)
	}
	return seq, f
}

func (s *Store) load(ctx context.Context, filters *model.FilterOptions, keep bool) error {
	seq, f := s.begin(filters, keep)
	start := time.Now()
	data, err := s.gw.GetMatrix(ctx, f)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if s.State().Stale(seq) {
		_ = metrics.RecordMatrixLoad(metrics.OutcomeStale, elapsed)
		s.log.Debug(ctx, "discarding stale matrix response",
			logger.Uint64("seq", seq),
			logger.Bool("failed", err != nil))
		return nil
	}

	if err != nil {
		st := s.Dispatch(LoadFailed{Seq: seq, Err: err})
		if st.Settled != seq {
			_ = metrics.RecordMatrixLoad(metrics.OutcomeStale, elapsed)
			return nil
		}
		_ = metrics.RecordMatrixLoad(metrics.OutcomeFailed, elapsed)
		metrics.RecordErrorByComponent("matrix", "load")
		s.log.Error(ctx, "failed to load matrix", logger.Uint64("seq", seq), logger.Error(err))
		return fmt.Errorf("load matrix: %w", err)
	}

	st := s.Dispatch(LoadSucceeded{Seq: seq, Data: data})
	if st.Settled != seq {
		_ = metrics.RecordMatrixLoad(metrics.OutcomeStale, elapsed)
		return nil
	}
	_ = metrics.RecordMatrixLoad(metrics.OutcomeApplied, elapsed)
	metrics.UpdateMatrixSize(len(data.Employees), len(data.Columns), len(data.Scores))
	s.log.Debug(ctx, "matrix loaded",
		logger.Uint64("seq", seq),
		logger.Int("employees", len(data.Employees)),
		logger.Int("columns", len(data.Columns)),
		logger.Int("scores", len(data.Scores)))
	return nil
}

// UpdateScore upserts the score for (employeeID, columnID) and, once the
// backend accepted it, reflects it into the loaded snapshot. On error the
// local state is untouched and the error is returned. Before the first load
// the remote write still happens and only the local patch is skipped.
func (s *Store) UpdateScore(ctx context.Context, employeeID int64, columnID string, level int, notes string) (model.Score, error) {
	req := model.CreateScoreRequest{
		EmployeeID: employeeID,
		ColumnID:   columnID,
		Level:      level,
		Notes:      notes,
		UpdatedBy:  s.attribution(ctx),
	}
	saved, err := s.gw.UpsertScore(ctx, req)
	if err != nil {
		metrics.RecordScoreUpdate(metrics.OutcomeFailed)
		s.log.Error(ctx, "failed to update score",
			logger.Int64("employee_id", employeeID),
			logger.String("column_id", columnID),
			logger.Error(err))
		return model.Score{}, err
	}
	metrics.RecordScoreUpdate(metrics.OutcomeSuccess)

	at := s.now()
	if !saved.UpdatedAt.IsZero() {
		at = saved.UpdatedAt.Time
	}
	s.Dispatch(ScoreUpdated{
		EmployeeID: employeeID,
		ColumnID:   columnID,
		Level:      level,
		Notes:      notes,
		UpdatedBy:  req.UpdatedBy,
		At:         at,
	})
	return saved, nil
}
