package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a project funding request.
type RequestStatus string

const (
	StatusDraft             RequestStatus = "DRAFT"
	StatusPending           RequestStatus = "PENDING"
	StatusActive            RequestStatus = "ACTIVE"
	StatusPendingCompletion RequestStatus = "PENDING_COMPLETION"
	StatusCompleted         RequestStatus = "COMPLETED"
	StatusRejected          RequestStatus = "REJECTED"
)

// AllRequestStatuses lists every canonical status in lifecycle order.
var AllRequestStatuses = []RequestStatus{
	StatusDraft,
	StatusPending,
	StatusActive,
	StatusPendingCompletion,
	StatusCompleted,
	StatusRejected,
}

// statusAliases maps the loosely-typed spellings found in stored documents
// onto the canonical enum.
var statusAliases = map[string]RequestStatus{
	"draft":              StatusDraft,
	"pending":            StatusPending,
	"submitted":          StatusPending,
	"active":             StatusActive,
	"approved":           StatusActive,
	"in_progress":        StatusActive,
	"pending_completion": StatusPendingCompletion,
	"pendingcompletion":  StatusPendingCompletion,
	"completed":          StatusCompleted,
	"done":               StatusCompleted,
	"rejected":           StatusRejected,
	"denied":             StatusRejected,
}

// ParseRequestStatus normalizes a raw status string into the canonical enum.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown request status %q", raw)
}

// HoldsLinkedExpense reports whether a request in this status must have exactly
// one linked ledger transaction.
func (s RequestStatus) HoldsLinkedExpense() bool {
	switch s {
	case StatusActive, StatusPendingCompletion, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// IsPublic reports whether the transparency view may show a request in this status.
func (s RequestStatus) IsPublic() bool {
	return s == StatusActive || s == StatusCompleted
}

// ProjectRequest is a funding proposal moving through the approval workflow.
type ProjectRequest struct {
	RequestID     string          `json:"requestID"` // Primary Key (UUID)
	Title         string          `json:"title"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"` // Positive amount posted on approval
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	Status        RequestStatus   `json:"status"`
	RequesterID   string          `json:"requesterID"`
	RequesterName string          `json:"requesterName"`
	SubmittedAt   *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt    *time.Time      `json:"approvedAt,omitempty"`
	ApprovedBy    *string         `json:"approvedBy,omitempty"`
	RejectedAt    *time.Time      `json:"rejectedAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Version       int64           `json:"version"` // Optimistic concurrency counter
	AuditFields
}

// StatusChange describes a single status write. Timestamps that are nil are left untouched.
type StatusChange struct {
	RequestID       string
	ExpectedVersion int64
	From            RequestStatus
	To              RequestStatus
	At              time.Time
	ActorID         string
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *string
	RejectedAt      *time.Time
	CompletedAt     *time.Time
}

// Apply returns a copy of r with the change applied and the version bumped.
func (c StatusChange) Apply(r ProjectRequest) ProjectRequest {
	r.Status = c.To
	if c.SubmittedAt != nil {
		r.SubmittedAt = c.SubmittedAt
	}
	if c.ApprovedAt != nil {
		r.ApprovedAt = c.ApprovedAt
	}
	if c.ApprovedBy != nil {
		r.ApprovedBy = c.ApprovedBy
	}
	if c.RejectedAt != nil {
		r.RejectedAt = c.RejectedAt
	}
	if c.CompletedAt != nil {
		r.CompletedAt = c.CompletedAt
	}
	r.Version++
	r.LastUpdatedAt = c.At
	r.LastUpdatedBy = c.ActorID
	return r
}

// Activation is the compound approve write: one status change plus its linked expense.
type Activation struct {
	Change  StatusChange
	Expense Transaction
}

// TransitionResult reports the outcome of a workflow operation.
type TransitionResult struct {
	Request ProjectRequest `json:"request"`
	// Transaction is the linked expense, set for approvals.
	Transaction *Transaction `json:"transaction,omitempty"`
	// AlreadyApplied is true when the event had been applied before and nothing was written.
	AlreadyApplied bool     `json:"alreadyApplied"`
	Warnings       []string `json:"warnings,omitempty"`
}
