package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/skillmatrix/internal/domain/model"
)

func scoreQuery(f model.ScoreFilter) url.Values {
	q := url.Values{}
	if f.EmployeeID > 0 {
		q.Set("employee_id", strconv.FormatInt(f.EmployeeID, 10))
	}
	if f.ColumnID != "" {
		q.Set("column_id", f.ColumnID)
	}
	return q
}

// ListScores returns score records matching f.
func (c *Client) ListScores(ctx context.Context, f model.ScoreFilter) ([]model.Score, error) {
	var out []model.Score
	if err := c.call(ctx, "scores.list", http.MethodGet, "/scores", scoreQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetScore returns one score record.
func (c *Client) GetScore(ctx context.Context, id int64) (model.Score, error) {
	var out model.Score
	err := c.call(ctx, "scores.get", http.MethodGet, "/scores/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// UpsertScore creates the score for (employee, column) or overwrites the existing one.
func (c *Client) UpsertScore(ctx context.Context, req model.CreateScoreRequest) (model.Score, error) {
	var out model.Score
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.call(ctx, "scores.upsert", http.MethodPost, "/scores/", nil, req, &out)
	return out, err
}

// UpdateScore patches a score record by id.
func (c *Client) UpdateScore(ctx context.Context, id int64, req model.UpdateScoreRequest) (model.Score, error) {
	var out model.Score
	err := c.call(ctx, "scores.update", http.MethodPut, "/scores/"+strconv.FormatInt(id, 10), nil, req, &out)
	return out, err
}

// DeleteScore removes a score record.
func (c *Client) DeleteScore(ctx context.Context, id int64) error {
	return c.call(ctx, "scores.delete", http.MethodDelete, "/scores/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// EmployeeSummary returns the backend's score summary for one employee.
func (c *Client) EmployeeSummary(ctx context.Context, employeeID int64) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, "scores.employee_summary", http.MethodGet,
		"/scores/employee/"+strconv.FormatInt(employeeID, 10)+"/summary", nil, nil, &out)
	return out, err
}

// ColumnSummary returns the backend's score summary for one column.
func (c *Client) ColumnSummary(ctx context.Context, columnID string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, "scores.column_summary", http.MethodGet,
		"/scores/column/"+escape(columnID)+"/summary", nil, nil, &out)
	return out, err
}
