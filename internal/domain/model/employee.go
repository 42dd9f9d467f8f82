// Package model contains the entities exchanged with the training matrix backend.
package model

import (
	"fmt"
	"strings"
)

// Employee is the identity record of a person tracked in the matrix.
type Employee struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Department string     `json:"department,omitempty"`
	Avatar     string     `json:"avatar,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  Timestamp  `json:"created_at"`
	UpdatedAt  *Timestamp `json:"updated_at,omitempty"`
}

// SameAs reports whether e and o identify the same employee.
func (e Employee) SameAs(o Employee) bool { return e.ID == o.ID }

// CreateEmployeeRequest is the body of POST /employees/.
type CreateEmployeeRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// Validate checks required fields before submission.
func (r CreateEmployeeRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: missing name", ErrValidation)
	case strings.TrimSpace(r.Role) == "":
		return fmt.Errorf("%w: missing role", ErrValidation)
	}
	return nil
}

// UpdateEmployeeRequest is the body of PUT /employees/{id}. Nil fields are not sent.
type UpdateEmployeeRequest struct {
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// Validate rejects present-but-blank required fields.
func (r UpdateEmployeeRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrValidation)
	}
	if r.Role != nil && strings.TrimSpace(*r.Role) == "" {
		return fmt.Errorf("%w: role must not be blank", ErrValidation)
	}
	return nil
}
