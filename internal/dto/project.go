package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// UpdateProjectRequest is the payload of PATCH /projects/:id.
type UpdateProjectRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Status          *string `json:"status"`
	OwnerID         *string `json:"owner_id"`
}

// Patch converts the request into the model patch.
func (r UpdateProjectRequest) Patch() models.ProjectPatch {
	patch := models.ProjectPatch{
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
	}
	if r.Status != nil {
		status := models.ProjectStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}
