package models

// BulkPolicy selects the failure semantics of a batch execution.
type BulkPolicy string

const (
	// BulkPolicyAtomic runs every operation inside one transaction; the
	// first failure rolls back all of them.
	BulkPolicyAtomic BulkPolicy = "atomic"
	// BulkPolicyBestEffort commits each operation independently and
	// collects per-operation failures.
	BulkPolicyBestEffort BulkPolicy = "best_effort"
)

// Valid reports whether the value is a known policy.
func (p BulkPolicy) Valid() bool {
	return p == BulkPolicyAtomic || p == BulkPolicyBestEffort
}

// BulkOperationKind enumerates supported batch operation kinds.
type BulkOperationKind string

const (
	BulkOpCreate BulkOperationKind = "create"
	BulkOpUpdate BulkOperationKind = "update"
	BulkOpDelete BulkOperationKind = "delete"
)

// BulkOperation is one ordered mutation descriptor inside a batch.
// Update and delete operations target IssueID at ExpectedVersion; create
// operations carry a payload and use Ref to key failures in the result.
type BulkOperation struct {
	Ref             string
	Kind            BulkOperationKind
	IssueID         string
	ExpectedVersion int64
	Create          *IssueCreate
	Patch           *IssuePatch
	ActorID         *string
}

// Key returns the identifier used for this operation in results.
func (op BulkOperation) Key() string {
	if op.IssueID != "" {
		return op.IssueID
	}
	return op.Ref
}

// BulkFailure pairs an operation key with the reason it failed.
type BulkFailure struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// BulkResult reports the outcome of a batch execution in submission order.
// Under the atomic policy a non-empty Failed list implies Succeeded is empty.
type BulkResult struct {
	Policy    BulkPolicy    `json:"policy"`
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// FailedRefs returns the set of operation keys that failed.
func (r *BulkResult) FailedRefs() map[string]string {
	out := make(map[string]string, len(r.Failed))
	for _, f := range r.Failed {
		out[f.Ref] = f.Reason
	}
	return out
}
