package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// CreateExportRequest is the payload of POST /reports/exports. Days bounds
// the report window; zero means no time filter.
type CreateExportRequest struct {
	Type      string  `json:"type"`
	Format    string  `json:"format"`
	ProjectID *string `json:"project_id"`
	Days      int     `json:"days"`
	Limit     int     `json:"limit"`
}

// Params converts the request into stored job parameters.
func (r CreateExportRequest) Params() models.ExportJobParams {
	return models.ExportJobParams{
		Format:    models.ExportFormat(r.Format),
		ProjectID: r.ProjectID,
		Days:      r.Days,
		Limit:     r.Limit,
	}
}
