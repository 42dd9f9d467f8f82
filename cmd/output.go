package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/permission"
	"github.com/okian/skillmatrix/internal/domain/progress"
)

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func printJSON(w io.Writer, v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printKV(w io.Writer, rows [][2]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "no results")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printMatrix renders one row per employee and one column per training
// column, with the level label in each cell and the progress percentage last.
func printMatrix(w io.Writer, data *model.MatrixData, sums []progress.Summary, level func(int) model.LevelConfig) {
	if data == nil {
		_, _ = fmt.Fprintln(w, "no results")
		return
	}
	headers := []string{"ID", "NAME", "DEPARTMENT"}
	for _, c := range data.Columns {
		headers = append(headers, c.ID)
	}
	headers = append(headers, "PROGRESS")

	pct := make(map[int64]progress.Summary, len(sums))
	for _, s := range sums {
		pct[s.EmployeeID] = s
	}
	rows := make([][]string, 0, len(data.Employees))
	for _, e := range data.Employees {
		row := []string{strconv.FormatInt(e.ID, 10), e.Name, orDash(e.Department)}
		for _, c := range data.Columns {
			if cell, ok := data.Cell(e.ID, c.ID); ok {
				row = append(row, level(cell.Level).Label)
			} else {
				row = append(row, "-")
			}
		}
		s := pct[e.ID]
		row = append(row, fmt.Sprintf("%d%% (%s)", s.Percent, s.Band))
		rows = append(rows, row)
	}
	printTable(w, headers, rows)
}

func printEmployees(w io.Writer, items []model.Employee) {
	rows := make([][]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Role,
			orDash(e.Department),
			strconv.FormatBool(e.IsActive),
		})
	}
	printTable(w, []string{"ID", "NAME", "ROLE", "DEPARTMENT", "ACTIVE"}, rows)
}

func printColumns(w io.Writer, items []model.TrainingColumn) {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			c.ID,
			c.Title,
			orDash(c.Category),
			strconv.Itoa(c.TargetLevel),
			strconv.Itoa(c.SortOrder),
		})
	}
	printTable(w, []string{"ID", "TITLE", "CATEGORY", "TARGET", "ORDER"}, rows)
}

func printLevels(w io.Writer, items []model.LevelConfig) {
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		rows = append(rows, []string{strconv.Itoa(l.Level), l.Label, l.Color, orDash(l.Description)})
	}
	printTable(w, []string{"LEVEL", "LABEL", "COLOR", "DESCRIPTION"}, rows)
}

func printAnalytics(w io.Writer, a model.AnalyticsData) {
	printKV(w, [][2]string{
		{"employees", strconv.Itoa(a.TotalEmployees)},
		{"trainings", strconv.Itoa(a.TotalTrainings)},
		{"completion_rate", strconv.FormatFloat(a.CompletionRate, 'f', 1, 64) + "%"},
	})
	_, _ = fmt.Fprintln(w)

	dist := make([][]string, 0, len(a.SkillDistribution))
	for _, d := range a.SkillDistribution {
		dist = append(dist, []string{strconv.Itoa(d.Level), d.Label, strconv.Itoa(d.Count), strconv.FormatFloat(d.Percentage, 'f', 1, 64)})
	}
	printTable(w, []string{"LEVEL", "LABEL", "COUNT", "PERCENT"}, dist)
	_, _ = fmt.Fprintln(w)

	top := make([][]string, 0, len(a.TopSkills))
	for _, s := range a.TopSkills {
		top = append(top, []string{s.ColumnID, s.Title, strconv.Itoa(s.CompletedCount)})
	}
	printTable(w, []string{"COLUMN", "TITLE", "COMPLETED"}, top)
}

func printUser(w io.Writer, u model.User) {
	perms := permission.For(u.Role)
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	printKV(w, [][2]string{
		{"id", strconv.FormatInt(u.ID, 10)},
		{"username", u.Username},
		{"role", string(u.Role)},
		{"permissions", strings.Join(names, ",")},
	})
}
