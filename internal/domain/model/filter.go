package model

import (
	"net/url"
	"strconv"
)

// FilterOptions is the query specification re-issued on every matrix fetch.
// Zero-valued fields are absent, not empty.
type FilterOptions struct {
	Department string `json:"department,omitempty"`
	Role       string `json:"role,omitempty"`
	ActiveOnly *bool  `json:"active_only,omitempty"`
}

// DefaultFilters returns the filters used before the caller sets any.
func DefaultFilters() FilterOptions {
	return FilterOptions{ActiveOnly: Bool(true)}
}

// Query encodes f as URL query values, omitting absent fields.
func (f FilterOptions) Query() url.Values {
	q := url.Values{}
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.ActiveOnly != nil {
		q.Set("active_only", strconv.FormatBool(*f.ActiveOnly))
	}
	return q
}

// Equal reports whether f and o select the same rows.
func (f FilterOptions) Equal(o FilterOptions) bool {
	if f.Department != o.Department || f.Role != o.Role {
		return false
	}
	if (f.ActiveOnly == nil) != (o.ActiveOnly == nil) {
		return false
	}
	return f.ActiveOnly == nil || *f.ActiveOnly == *o.ActiveOnly
}

// ExportOptions narrows matrix exports.
type ExportOptions struct {
	Department string
	Role       string
}

// Query encodes o as URL query values, omitting absent fields.
func (o ExportOptions) Query() url.Values {
	q := url.Values{}
	if o.Department != "" {
		q.Set("department", o.Department)
	}
	if o.Role != "" {
		q.Set("role", o.Role)
	}
	return q
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// String returns a pointer to s.
func String(s string) *string { return &s }
