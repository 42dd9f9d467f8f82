package model

// MatrixData is the composite snapshot and the unit of load and reload.
type MatrixData struct {
	Employees []Employee       `json:"employees"`
	Columns   []TrainingColumn `json:"columns"`
	Scores    []MatrixCell     `json:"scores"`
	Settings  AppSettings      `json:"settings"`
}

// Employee returns the employee with id.
func (m *MatrixData) Employee(id int64) (Employee, bool) {
	if m == nil {
		return Employee{}, false
	}
	for _, e := range m.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// Column returns the column with id.
func (m *MatrixData) Column(id string) (TrainingColumn, bool) {
	if m == nil {
		return TrainingColumn{}, false
	}
	for _, c := range m.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return TrainingColumn{}, false
}

// Cell returns the score for (employeeID, columnID).
func (m *MatrixData) Cell(employeeID int64, columnID string) (MatrixCell, bool) {
	if m == nil {
		return MatrixCell{}, false
	}
	for _, s := range m.Scores {
		if s.EmployeeID == employeeID && s.ColumnID == columnID {
			return s, true
		}
	}
	return MatrixCell{}, false
}

// Level returns the level for (employeeID, columnID), 0 when unscored.
func (m *MatrixData) Level(employeeID int64, columnID string) int {
	c, ok := m.Cell(employeeID, columnID)
	if !ok {
		return 0
	}
	return c.Level
}

// VisibleScores returns the scores whose employee and column both resolve.
// Scores pointing at deleted columns or filtered-out employees are omitted.
func (m *MatrixData) VisibleScores() []MatrixCell {
	if m == nil {
		return nil
	}
	employees := make(map[int64]struct{}, len(m.Employees))
	for _, e := range m.Employees {
		employees[e.ID] = struct{}{}
	}
	columns := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		columns[c.ID] = struct{}{}
	}
	out := make([]MatrixCell, 0, len(m.Scores))
	for _, s := range m.Scores {
		if _, ok := employees[s.EmployeeID]; !ok {
			continue
		}
		if _, ok := columns[s.ColumnID]; !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}
