package model

import (
	"fmt"
	"strings"
)

// TrainingColumn is a training module definition, one axis of the matrix.
// ID is a string slug that scores reference without any enforced foreign key.
type TrainingColumn struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	TargetLevel int        `json:"target_level"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// SameAs reports whether c and o identify the same column.
func (c TrainingColumn) SameAs(o TrainingColumn) bool { return c.ID == o.ID }

// CreateTrainingColumnRequest is the body of POST /columns/. An empty ID lets
// the server assign one.
type CreateTrainingColumnRequest struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	TargetLevel int    `json:"target_level"`
	SortOrder   *int   `json:"sort_order,omitempty"`
}

// Validate checks required fields before submission.
func (r CreateTrainingColumnRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: missing title", ErrValidation)
	case r.TargetLevel < 0:
		return fmt.Errorf("%w: target_level must be >= 0", ErrValidation)
	case r.SortOrder != nil && *r.SortOrder < 0:
		return fmt.Errorf("%w: sort_order must be >= 0", ErrValidation)
	}
	return nil
}

// UpdateTrainingColumnRequest is the body of PUT /columns/{id}.
type UpdateTrainingColumnRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	TargetLevel *int    `json:"target_level,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Validate rejects present-but-invalid fields.
func (r UpdateTrainingColumnRequest) Validate() error {
	switch {
	case r.Title != nil && strings.TrimSpace(*r.Title) == "":
		return fmt.Errorf("%w: title must not be blank", ErrValidation)
	case r.TargetLevel != nil && *r.TargetLevel < 0:
		return fmt.Errorf("%w: target_level must be >= 0", ErrValidation)
	case r.SortOrder != nil && *r.SortOrder < 0:
		return fmt.Errorf("%w: sort_order must be >= 0", ErrValidation)
	}
	return nil
}

// ReorderRequest is the body of PUT /columns/{id}/reorder.
type ReorderRequest struct {
	NewOrder int `json:"new_order"`
}

// ColumnFilter narrows GET /columns.
type ColumnFilter struct {
	Category   string
	ActiveOnly *bool
}
