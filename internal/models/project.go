package models

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Valid reports whether the value is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

// Project groups issues under a shared workstream.
type Project struct {
	Versioned
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	OwnerID     *string       `db:"owner_id" json:"owner_id,omitempty"`
}

// AcceptsIssues reports whether new issues may be filed against the project.
func (p *Project) AcceptsIssues() bool {
	return !p.IsDeleted && (p.Status == ProjectStatusPlanning || p.Status == ProjectStatusActive)
}

// ProjectPatch describes optional project field changes.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
	OwnerID     *string
}

// ProjectFilter captures filtering criteria for listing projects.
type ProjectFilter struct {
	Status         []ProjectStatus
	OwnerID        string
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
