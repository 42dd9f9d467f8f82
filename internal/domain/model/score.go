package model

import (
	"fmt"
	"strings"
)

// CellKey is the natural key of a score: at most one score exists per pair.
type CellKey struct {
	EmployeeID int64
	ColumnID   string
}

// String implements fmt.Stringer.
func (k CellKey) String() string { return fmt.Sprintf("%d/%s", k.EmployeeID, k.ColumnID) }

// Score is a persisted score record as returned by /scores.
type Score struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	ColumnID   string    `json:"column_id"`
	Level      int       `json:"level"`
	Notes      string    `json:"notes,omitempty"`
	UpdatedBy  string    `json:"updated_by,omitempty"`
	UpdatedAt  Timestamp `json:"updated_at"`
}

// Key returns the natural key of s.
func (s Score) Key() CellKey { return CellKey{EmployeeID: s.EmployeeID, ColumnID: s.ColumnID} }

// MatrixCell is the score shape carried inside a matrix snapshot.
type MatrixCell struct {
	EmployeeID int64      `json:"employee_id"`
	ColumnID   string     `json:"column_id"`
	Level      int        `json:"level"`
	Notes      string     `json:"notes,omitempty"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	UpdatedAt  *Timestamp `json:"updated_at,omitempty"`
}

// Key returns the natural key of c.
func (c MatrixCell) Key() CellKey { return CellKey{EmployeeID: c.EmployeeID, ColumnID: c.ColumnID} }

// CreateScoreRequest is the upsert body of POST /scores/.
type CreateScoreRequest struct {
	EmployeeID int64  `json:"employee_id"`
	ColumnID   string `json:"column_id"`
	Level      int    `json:"level"`
	Notes      string `json:"notes,omitempty"`
	UpdatedBy  string `json:"updated_by,omitempty"`
}

// Validate checks required fields before submission.
func (r CreateScoreRequest) Validate() error {
	switch {
	case r.EmployeeID <= 0:
		return fmt.Errorf("%w: missing employee_id", ErrValidation)
	case strings.TrimSpace(r.ColumnID) == "":
		return fmt.Errorf("%w: missing column_id", ErrValidation)
	case r.Level < 0:
		return fmt.Errorf("%w: level must be >= 0", ErrValidation)
	}
	return nil
}

// UpdateScoreRequest is the body of PUT /scores/{id}.
type UpdateScoreRequest struct {
	Level     *int    `json:"level,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	UpdatedBy *string `json:"updated_by,omitempty"`
}

// ScoreFilter narrows GET /scores.
type ScoreFilter struct {
	EmployeeID int64
	ColumnID   string
}
