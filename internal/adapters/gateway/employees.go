package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/skillmatrix/internal/domain/model"
)

// ListEmployees returns employees matching f. Absent filters are not sent.
func (c *Client) ListEmployees(ctx context.Context, f model.FilterOptions) ([]model.Employee, error) {
	var out []model.Employee
	if err := c.call(ctx, "employees.list", http.MethodGet, "/employees", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEmployee returns one employee.
func (c *Client) GetEmployee(ctx context.Context, id int64) (model.Employee, error) {
	var out model.Employee
	err := c.call(ctx, "employees.get", http.MethodGet, "/employees/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// CreateEmployee validates req and creates the employee.
func (c *Client) CreateEmployee(ctx context.Context, req model.CreateEmployeeRequest) (model.Employee, error) {
	var out model.Employee
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.call(ctx, "employees.create", http.MethodPost, "/employees/", nil, req, &out)
	return out, err
}

// UpdateEmployee sends the present fields of req.
func (c *Client) UpdateEmployee(ctx context.Context, id int64, req model.UpdateEmployeeRequest) (model.Employee, error) {
	var out model.Employee
	if err := req.Validate(); err != nil {
		return out, err
	}
	err := c.call(ctx, "employees.update", http.MethodPut, "/employees/"+strconv.FormatInt(id, 10), nil, req, &out)
	return out, err
}

// DeleteEmployee removes an employee.
func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.call(ctx, "employees.delete", http.MethodDelete, "/employees/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ListDepartments returns the distinct departments known to the backend.
func (c *Client) ListDepartments(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "employees.departments", http.MethodGet, "/employees/departments/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoles returns the distinct employee roles known to the backend.
func (c *Client) ListRoles(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "employees.roles", http.MethodGet, "/employees/roles/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
