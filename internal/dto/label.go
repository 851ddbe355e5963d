package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// UpdateLabelRequest is the payload of PATCH /labels/:id.
type UpdateLabelRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	Name            *string `json:"name"`
	Color           *string `json:"color"`
	Description     *string `json:"description"`
}

// Patch converts the request into the model patch.
func (r UpdateLabelRequest) Patch() models.LabelPatch {
	return models.LabelPatch{
		Name:        r.Name,
		Color:       r.Color,
		Description: r.Description,
	}
}
