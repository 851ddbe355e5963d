package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// UpdateUserRequest is the payload of PATCH /users/:id.
type UpdateUserRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	Email           *string `json:"email"`
	FullName        *string `json:"full_name"`
	Role            *string `json:"role"`
	Active          *bool   `json:"active"`
}

// Patch converts the request into the model patch.
func (r UpdateUserRequest) Patch() models.UserPatch {
	patch := models.UserPatch{
		Email:    r.Email,
		FullName: r.FullName,
		Active:   r.Active,
	}
	if r.Role != nil {
		role := models.UserRole(*r.Role)
		patch.Role = &role
	}
	return patch
}
