package model

import (
	"encoding/json"
	"fmt"
)

// SkillDistribution is one slice of the level distribution chart.
type SkillDistribution struct {
	Level      int     `json:"level"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// TopSkill is a column ranked by completions.
type TopSkill struct {
	ColumnID       string `json:"column_id"`
	Title          string `json:"title"`
	CompletedCount int    `json:"completed_count"`
}

// Activity is a recent score change.
type Activity struct {
	EmployeeName string    `json:"employee_name"`
	ColumnTitle  string    `json:"column_title"`
	Level        int       `json:"level"`
	UpdatedAt    Timestamp `json:"updated_at"`
	UpdatedBy    string    `json:"updated_by,omitempty"`
}

// AnalyticsData is the server-computed dashboard aggregate.
type AnalyticsData struct {
	SkillDistribution []SkillDistribution `json:"skill_distribution"`
	TotalEmployees    int                 `json:"total_employees"`
	TotalTrainings    int                 `json:"total_trainings"`
	CompletionRate    float64             `json:"completion_rate"`
	TopSkills         []TopSkill          `json:"top_skills"`
	RecentActivity    []Activity          `json:"recent_activity"`
}

type rawAnalytics struct {
	SkillDistribution *[]SkillDistribution `json:"skill_distribution"`
	TotalEmployees    *int                 `json:"total_employees"`
	TotalTrainings    *int                 `json:"total_trainings"`
	CompletionRate    *float64             `json:"completion_rate"`
	TopSkills         *[]TopSkill          `json:"top_skills"`
	RecentActivity    *[]Activity          `json:"recent_activity"`
}

// ParseAnalytics decodes and normalizes an analytics payload once at the
// boundary. The three collections are required; missing counters read as zero
// and the completion rate is clamped to [0, 100].
func ParseAnalytics(b []byte) (AnalyticsData, error) {
	var raw rawAnalytics
	if err := json.Unmarshal(b, &raw); err != nil {
		return AnalyticsData{}, fmt.Errorf("%w: %v", ErrIncompleteAnalytics, err)
	}
	switch {
	case raw.SkillDistribution == nil:
		return AnalyticsData{}, fmt.Errorf("%w: missing skill_distribution", ErrIncompleteAnalytics)
	case raw.TopSkills == nil:
		return AnalyticsData{}, fmt.Errorf("%w: missing top_skills", ErrIncompleteAnalytics)
	case raw.RecentActivity == nil:
		return AnalyticsData{}, fmt.Errorf("%w: missing recent_activity", ErrIncompleteAnalytics)
	}

	out := AnalyticsData{
		SkillDistribution: *raw.SkillDistribution,
		TopSkills:         make([]TopSkill, 0, len(*raw.TopSkills)),
		RecentActivity:    *raw.RecentActivity,
	}
	if raw.TotalEmployees != nil && *raw.TotalEmployees > 0 {
		out.TotalEmployees = *raw.TotalEmployees
	}
	if raw.TotalTrainings != nil && *raw.TotalTrainings > 0 {
		out.TotalTrainings = *raw.TotalTrainings
	}
	if raw.CompletionRate != nil {
		out.CompletionRate = min(max(*raw.CompletionRate, 0), 100)
	}
	for _, s := range *raw.TopSkills {
		if s.ColumnID == "" {
			continue
		}
		if s.Title == "" {
			s.Title = s.ColumnID
		}
		out.TopSkills = append(out.TopSkills, s)
	}
	for i := range out.SkillDistribution {
		d := &out.SkillDistribution[i]
		if d.Label == "" {
			d.Label = FallbackLevelLabel(d.Level)
		}
		if d.Color == "" {
			d.Color = FallbackLevelColor
		}
	}
	return out, nil
}
