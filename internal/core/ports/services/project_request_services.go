package services

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/dto"
)

// ProjectRequestReaderSvc defines read operations for project requests
type ProjectRequestReaderSvc interface {
	// GetRequest retrieves a request. Members only see their own requests.
	GetRequest(ctx context.Context, requestID string, actor domain.Actor) (*domain.ProjectRequest, error)

	// ListRequests retrieves requests filtered by status and/or requester.
	ListRequests(ctx context.Context, params dto.ListRequestsParams, actor domain.Actor) ([]domain.ProjectRequest, error)
}

// ProjectRequestWriterSvc defines write operations for project requests
type ProjectRequestWriterSvc interface {
	// CreateRequest persists a new request as DRAFT, or PENDING when req.Submit is set.
	CreateRequest(ctx context.Context, req dto.CreateProjectRequest, actor domain.Actor) (*domain.ProjectRequest, error)
}

// ProjectRequestSvcFacade combines all request-related service interfaces
type ProjectRequestSvcFacade interface {
	ProjectRequestReaderSvc
	ProjectRequestWriterSvc
}

// ApprovalSvc drives requests through the approval workflow.
type ApprovalSvc interface {
	// Submit moves a DRAFT request to PENDING.
	Submit(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error)

	// Approve moves a PENDING request to ACTIVE and posts its linked expense atomically.
	// Approving a request that is already ACTIVE or beyond succeeds without writing.
	Approve(ctx context.Context, requestID string, approver domain.Actor) (*domain.TransitionResult, error)

	// Reject moves a PENDING request to REJECTED. No ledger effect.
	Reject(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error)

	// MarkComplete moves an ACTIVE request to PENDING_COMPLETION. No ledger effect.
	MarkComplete(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error)

	// VerifyCompletion moves a PENDING_COMPLETION request to COMPLETED. No ledger effect.
	VerifyCompletion(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error)
}
