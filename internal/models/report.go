package models

import "time"

// AssigneeLoad counts the open workload of one assignee.
type AssigneeLoad struct {
	UserID    string `db:"user_id" json:"user_id"`
	FullName  string `db:"full_name" json:"full_name"`
	OpenCount int    `db:"open_count" json:"open_count"`
}

// LatencySummary aggregates resolution latency in hours over a trailing window.
type LatencySummary struct {
	ResolvedCount int      `db:"resolved_count" json:"resolved_count"`
	AvgHours      *float64 `db:"avg_hours" json:"avg_hours,omitempty"`
	MinHours      *float64 `db:"min_hours" json:"min_hours,omitempty"`
	MaxHours      *float64 `db:"max_hours" json:"max_hours,omitempty"`
	P50Hours      *float64 `db:"p50_hours" json:"p50_hours,omitempty"`
	P95Hours      *float64 `db:"p95_hours" json:"p95_hours,omitempty"`
	WindowDays    int      `db:"-" json:"window_days"`
}

// VelocityReport compares created versus resolved issue counts in a window.
type VelocityReport struct {
	CreatedCount   int       `db:"created_count" json:"created_count"`
	ResolvedCount  int       `db:"resolved_count" json:"resolved_count"`
	NetChange      int       `db:"-" json:"net_change"`
	CreatedPerDay  float64   `db:"-" json:"created_per_day"`
	ResolvedPerDay float64   `db:"-" json:"resolved_per_day"`
	WindowDays     int       `db:"-" json:"window_days"`
	WindowStartsAt time.Time `db:"-" json:"window_starts_at"`
}

// StatusStatistics buckets live issues by workflow state.
type StatusStatistics struct {
	Total          int     `db:"total" json:"total"`
	OpenCount      int     `db:"open_count" json:"open_count"`
	InProgress     int     `db:"in_progress_count" json:"in_progress_count"`
	ResolvedCount  int     `db:"resolved_count" json:"resolved_count"`
	ClosedCount    int     `db:"closed_count" json:"closed_count"`
	ResolutionRate float64 `db:"-" json:"resolution_rate"`
}

// ReportScope narrows aggregations to a project when set.
type ReportScope struct {
	ProjectID string
	Days      int
	Limit     int
}
