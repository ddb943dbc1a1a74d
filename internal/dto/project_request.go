package dto

import (
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateProjectRequest defines the data needed to create a funding request.
type CreateProjectRequest struct {
	Title         string          `json:"title" binding:"required,max=200"`
	EstimatedCost decimal.Decimal `json:"estimatedCost" binding:"dpositive"`
	Description   string          `json:"description" binding:"max=4000"`
	Date          string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	// Submit creates the request directly in PENDING.
	Submit bool `json:"submit"`
}

// ListRequestsParams defines query parameters for listing requests.
type ListRequestsParams struct {
	Status      string `form:"status"` // Comma separated; aliases accepted
	RequesterID string `form:"requester"`
}

// ProjectRequestResponse defines the data returned for a funding request.
type ProjectRequestResponse struct {
	RequestID     string          `json:"requestID"`
	Title         string          `json:"title"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
	RequesterID   string          `json:"requesterID"`
	RequesterName string          `json:"requesterName"`
	SubmittedAt   *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt    *time.Time      `json:"approvedAt,omitempty"`
	ApprovedBy    *string         `json:"approvedBy,omitempty"`
	RejectedAt    *time.Time      `json:"rejectedAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// TransitionResponse is returned by the workflow endpoints.
type TransitionResponse struct {
	Request        ProjectRequestResponse `json:"request"`
	Transaction    *TransactionResponse   `json:"transaction,omitempty"`
	AlreadyApplied bool                   `json:"alreadyApplied"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// ToProjectRequestResponse converts a domain.ProjectRequest to its DTO
func ToProjectRequestResponse(r *domain.ProjectRequest) ProjectRequestResponse {
	return ProjectRequestResponse{
		RequestID:     r.RequestID,
		Title:         r.Title,
		EstimatedCost: r.EstimatedCost,
		Description:   r.Description,
		Date:          r.Date.Format(DateLayout),
		Status:        string(r.Status),
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		SubmittedAt:   r.SubmittedAt,
		ApprovedAt:    r.ApprovedAt,
		ApprovedBy:    r.ApprovedBy,
		RejectedAt:    r.RejectedAt,
		CompletedAt:   r.CompletedAt,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

// ToProjectRequestResponses converts a slice of domain.ProjectRequest
func ToProjectRequestResponses(rs []domain.ProjectRequest) []ProjectRequestResponse {
	res := make([]ProjectRequestResponse, len(rs))
	for i := range rs {
		res[i] = ToProjectRequestResponse(&rs[i])
	}
	return res
}

// ToTransitionResponse converts a domain.TransitionResult to its DTO
func ToTransitionResponse(res *domain.TransitionResult) TransitionResponse {
	out := TransitionResponse{
		Request:        ToProjectRequestResponse(&res.Request),
		AlreadyApplied: res.AlreadyApplied,
		Warnings:       res.Warnings,
	}
	if res.Transaction != nil {
		txn := ToTransactionResponse(res.Transaction)
		out.Transaction = &txn
	}
	return out
}
