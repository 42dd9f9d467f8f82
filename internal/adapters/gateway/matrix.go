package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/skillmatrix/internal/domain/model"
)

// GetMatrix returns the full snapshot for f.
func (c *Client) GetMatrix(ctx context.Context, f model.FilterOptions) (model.MatrixData, error) {
	var out model.MatrixData
	err := c.call(ctx, "matrix.get", http.MethodGet, "/matrix/", f.Query(), nil, &out)
	return out, err
}

// GetAnalytics returns normalized analytics. A payload missing required
// collections fails with model.ErrIncompleteAnalytics.
func (c *Client) GetAnalytics(ctx context.Context, department string) (model.AnalyticsData, error) {
	q := url.Values{}
	if department != "" {
		q.Set("department", department)
	}
	body, err := c.send(ctx, "matrix.analytics", http.MethodGet, "/matrix/analytics", q, nil)
	if err != nil {
		return model.AnalyticsData{}, err
	}
	out, err := model.ParseAnalytics(body)
	if err != nil {
		return model.AnalyticsData{}, fmt.Errorf("matrix.analytics: %w", err)
	}
	return out, nil
}

// ExportCSV returns the CSV export bytes.
func (c *Client) ExportCSV(ctx context.Context, o model.ExportOptions) ([]byte, error) {
	return c.send(ctx, "matrix.export_csv", http.MethodGet, "/matrix/export/csv", o.Query(), nil)
}

// ExportJSON returns the JSON export as a snapshot.
func (c *Client) ExportJSON(ctx context.Context, o model.ExportOptions) (model.MatrixData, error) {
	var out model.MatrixData
	err := c.call(ctx, "matrix.export_json", http.MethodGet, "/matrix/export/json", o.Query(), nil, &out)
	return out, err
}
