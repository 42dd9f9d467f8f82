// Package progress computes per-employee training totals over a matrix snapshot.
package progress

import (
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Band classifies a completion percentage.
type Band string

// Bands in descending order of completion.
const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// Default band thresholds, in percent.
const (
	defaultGoodThreshold = 80
	defaultFairThreshold = 60
)

var bandColors = map[Band]string{
	BandGood: "#10b981",
	BandFair: "#f59e0b",
	BandPoor: "#ef4444",
}

// Color returns the display color of b.
func (b Band) Color() string {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return model.FallbackLevelColor
}

// Summary is an employee's attained total against the targets of the visible columns.
type Summary struct {
	EmployeeID int64
	Total      int
	Max        int
	Percent    int
	Band       Band
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithThresholds sets the minimum percentages for the good and fair bands.
func WithThresholds(good, fair int) Option {
	return func(c *Calculator) {
		if good > fair && fair >= 0 {
			c.good = good
			c.fair = fair
		}
	}
}

// Calculator summarizes matrix snapshots.
type Calculator struct {
	good int
	fair int
}

// New creates a Calculator with configuration options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		good: defaultGoodThreshold,
		fair: defaultFairThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize totals the employee's levels over the columns present in data.
// Scores on unknown columns do not count. Percent is 0 when no column has a target.
func (c *Calculator) Summarize(data *model.MatrixData, employeeID int64) Summary {
	s := Summary{EmployeeID: employeeID}
	if data == nil {
		s.Band = c.band(0)
		return s
	}
	for _, col := range data.Columns {
		s.Max += col.TargetLevel
		s.Total += data.Level(employeeID, col.ID)
	}
	s.Percent = Percent(s.Total, s.Max)
	s.Band = c.band(s.Percent)
	return s
}

// SummarizeAll returns a summary for every employee in data, in snapshot order.
func (c *Calculator) SummarizeAll(data *model.MatrixData) []Summary {
	if data == nil {
		return nil
	}
	out := make([]Summary, 0, len(data.Employees))
	for _, e := range data.Employees {
		out = append(out, c.Summarize(data, e.ID))
	}
	return out
}

func (c *Calculator) band(percent int) Band {
	switch {
	case percent >= c.good:
		return BandGood
	case percent >= c.fair:
		return BandFair
	default:
		return BandPoor
	}
}

// Percent returns round(part/whole*100) with half-away-from-zero rounding, or 0 when whole <= 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0)
	return int(p.IntPart())
}
