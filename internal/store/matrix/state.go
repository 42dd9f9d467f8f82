package matrix

import (
	"time"

	"github.com/okian/skillmatrix/internal/domain/model"
)

// State is the matrix store state. Data is never mutated in place: every
// transition that changes it installs a new *MatrixData.
type State struct {
	Data    *model.MatrixData
	Loading bool
	Err     error
	Filters model.FilterOptions

	// Requested is the sequence of the newest issued load, Settled the
	// sequence of the newest load whose outcome was applied.
	Requested uint64
	Settled   uint64
	// Version increases on every transition that changes state.
	Version uint64
}

// Stale reports whether a load tagged seq completed after a newer one was applied.
func (s State) Stale(seq uint64) bool { return seq <= s.Settled }

// Action is a state transition request.
type Action interface{ action() }

// LoadStarted marks a load with sequence Seq as in flight. A non-nil Filters
// is stored together with the sequence, so the stored filters always belong
// to the newest issued load.
type LoadStarted struct {
	Seq     uint64
	Filters *model.FilterOptions
}

// LoadSucceeded carries the snapshot returned for load Seq.
type LoadSucceeded struct {
	Seq  uint64
	Data model.MatrixData
}

// LoadFailed carries the error of load Seq.
type LoadFailed struct {
	Seq uint64
	Err error
}

// ScoreUpdated reflects an accepted score upsert into the loaded snapshot.
type ScoreUpdated struct {
	EmployeeID int64
	ColumnID   string
	Level      int
	Notes      string
	UpdatedBy  string
	At         time.Time
}

func (LoadStarted) action()   {}
func (LoadSucceeded) action() {}
func (LoadFailed) action()    {}
func (ScoreUpdated) action()  {}

// InitialState returns the state before the first load.
func InitialState(filters model.FilterOptions) State {
	return State{Filters: filters}
}

// Reduce applies a to s and returns the next state. It is pure.
func Reduce(s State, a Action) State {
	next, changed := reduce(s, a)
	if changed {
		next.Version = s.Version + 1
	}
	return next
}

func reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case LoadStarted:
		if a.Seq <= s.Requested {
			return s, false
		}
		s.Requested = a.Seq
		s.Loading = s.Settled < s.Requested
		if a.Filters != nil {
			s.Filters = *a.Filters
		}
		return s, true

	case LoadSucceeded:
		if s.Stale(a.Seq) {
			return s, false
		}
		data := a.Data
		s.Data = &data
		s.Err = nil
		s.Settled = a.Seq
		s.Requested = max(s.Requested, a.Seq)
		s.Loading = s.Settled < s.Requested
		return s, true

	case LoadFailed:
		if s.Stale(a.Seq) {
			return s, false
		}
		s.Err = a.Err
		s.Settled = a.Seq
		s.Requested = max(s.Requested, a.Seq)
		s.Loading = s.Settled < s.Requested
		return s, true

	case ScoreUpdated:
		if s.Data == nil {
			return s, false
		}
		s.Data = upsertScore(s.Data, a)
		return s, true
	}
	return s, false
}

// upsertScore returns a copy of d whose scores hold exactly one entry for
// the updated (employee, column) pair.
func upsertScore(d *model.MatrixData, a ScoreUpdated) *model.MatrixData {
	next := *d
	key := model.CellKey{EmployeeID: a.EmployeeID, ColumnID: a.ColumnID}
	at := model.NewTimestamp(a.At)

	scores := make([]model.MatrixCell, 0, len(d.Scores)+1)
	found := false
	for _, c := range d.Scores {
		if c.Key() != key {
			scores = append(scores, c)
			continue
		}
		if found {
			// Collapse duplicates a previous snapshot may have carried.
			continue
		}
		found = true
		c.Level = a.Level
		c.Notes = a.Notes
		if a.UpdatedBy != "" {
			c.UpdatedBy = a.UpdatedBy
		}
		c.UpdatedAt = &at
		scores = append(scores, c)
	}
	if !found {
		scores = append(scores, model.MatrixCell{
			EmployeeID: a.EmployeeID,
			ColumnID:   a.ColumnID,
			Level:      a.Level,
			Notes:      a.Notes,
			UpdatedBy:  a.UpdatedBy,
			UpdatedAt:  &at,
		})
	}
	next.Scores = scores
	return &next
}
