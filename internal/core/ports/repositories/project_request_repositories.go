package repositories

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// ProjectRequestReader defines read operations for project requests
type ProjectRequestReader interface {
	// FindRequestByID retrieves a specific request by its unique identifier.
	FindRequestByID(ctx context.Context, requestID string) (*domain.ProjectRequest, error)

	// ListRequests retrieves every request, newest first.
	ListRequests(ctx context.Context) ([]domain.ProjectRequest, error)

	// ListRequestsByStatus retrieves requests in any of the given statuses, newest first.
	ListRequestsByStatus(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.ProjectRequest, error)

	// ListRequestsByRequester retrieves the requests created by one user, newest first.
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]domain.ProjectRequest, error)
}

// ProjectRequestWriter defines write operations for project requests
type ProjectRequestWriter interface {
	// SaveRequest persists a new request.
	SaveRequest(ctx context.Context, request domain.ProjectRequest) error

	// UpdateRequestStatus applies a single status change. The write succeeds only if
	// the stored version and status still match change.ExpectedVersion and change.From
	// (apperrors.ErrConcurrentModification otherwise) and From -> To is a legal step
	// (apperrors.ErrInvalidTransition otherwise).
	UpdateRequestStatus(ctx context.Context, change domain.StatusChange) (*domain.ProjectRequest, error)
}

// ApprovalWriter is the only writer allowed to touch requests and the ledger together.
type ApprovalWriter interface {
	// ActivateWithExpense moves a PENDING request to ACTIVE and appends its linked
	// expense as one atomic unit. Either both writes become visible or neither does.
	ActivateWithExpense(ctx context.Context, activation domain.Activation) (*domain.ProjectRequest, error)
}

// ProjectRequestRepositoryFacade combines all request-related repository interfaces
type ProjectRequestRepositoryFacade interface {
	ProjectRequestReader
	ProjectRequestWriter
}
