package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/skillmatrix/internal/domain/model"
)

func columnQuery(f model.ColumnFilter) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.ActiveOnly != nil {
		q.Set("active_only", strconv.FormatBool(*f.ActiveOnly))
	}
	return q
}

// ListColumns returns training columns matching f.
func (c *Client) ListColumns(ctx context.Context, f model.ColumnFilter) ([]model.TrainingColumn, error) {
	var out []model.TrainingColumn
	if err := c.call(ctx, "columns.list", http.MethodGet, "/columns", columnQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetColumn returns one training column.
func (c *Client) GetColumn(ctx context.Context, id string) (model.TrainingColumn, error) {
	var out model.TrainingColumn
	err := c.call(ctx, "columns.get", http.MethodGet, "/columns/"+escape(id), nil, nil, &out)
	return out, err
}

// CreateColumn validates req and creates the column.
func (c *Client) CreateColumn(ctx context.Context, req model.CreateTrainingColumnRequest) (model.TrainingColumn, error) {
	var out model.TrainingColumn
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.call(ctx, "columns.create", http.MethodPost, "/columns/", nil, req, &out)
	return out, err
}

// UpdateColumn sends the present fields of req.
func (c *Client) UpdateColumn(ctx context.Context, id string, req model.UpdateTrainingColumnRequest) (model.TrainingColumn, error) {
	var out model.TrainingColumn
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.call(ctx, "columns.update", http.MethodPut, "/columns/"+escape(id), nil, req, &out)
	return out, err
}

// DeleteColumn removes a training column. Scores that reference it stay on
// the backend and are hidden by the matrix view.
func (c *Client) DeleteColumn(ctx context.Context, id string) error {
	return c.call(ctx, "columns.delete", http.MethodDelete, "/columns/"+escape(id), nil, nil, nil)
}

// ReorderColumn moves a column to newOrder.
func (c *Client) ReorderColumn(ctx context.Context, id string, newOrder int) error {
	return c.call(ctx, "columns.reorder", http.MethodPut, "/columns/"+escape(id)+"/reorder", nil,
		model.ReorderRequest{NewOrder: newOrder}, nil)
}

// ListCategories returns the distinct column categories.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "columns.categories", http.MethodGet, "/columns/categories/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
