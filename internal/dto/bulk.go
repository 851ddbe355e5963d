package dto

import "github.com/noah-isme/issue-tracker-api/internal/models"

// BulkOperationRequest is one entry of a bulk batch. Create operations carry
// a payload and an optional ref used to key failures; update and delete
// operations target issue_id at expected_version.
type BulkOperationRequest struct {
	Ref             string              `json:"ref"`
	Kind            string              `json:"kind"`
	IssueID         string              `json:"issue_id"`
	ExpectedVersion int64               `json:"expected_version"`
	Payload         *CreateIssueRequest `json:"payload"`
	Patch           *IssuePatchRequest  `json:"patch"`
}

// BulkRequest is the payload of POST /issues/bulk.
type BulkRequest struct {
	Policy     string                 `json:"policy"`
	Operations []BulkOperationRequest `json:"operations"`
}

// ToOperations converts the request into executable operations, stamping the
// acting user onto creates.
func (r BulkRequest) ToOperations(actorID *string) []models.BulkOperation {
	ops := make([]models.BulkOperation, 0, len(r.Operations))
	for _, op := range r.Operations {
		converted := models.BulkOperation{
			Ref:             op.Ref,
			Kind:            models.BulkOperationKind(op.Kind),
			IssueID:         op.IssueID,
			ExpectedVersion: op.ExpectedVersion,
			ActorID:         actorID,
		}
		if op.Payload != nil {
			create := op.Payload.Model(actorID)
			converted.Create = &create
		}
		if op.Patch != nil {
			patch := op.Patch.Patch()
			converted.Patch = &patch
		}
		ops = append(ops, converted)
	}
	return ops
}
