package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/google/uuid"
)

// projectRequestService implements portssvc.ProjectRequestSvcFacade
type projectRequestService struct {
	BaseService
	requestRepo portsrepo.ProjectRequestRepositoryFacade
}

// NewProjectRequestService creates a new project request service.
func NewProjectRequestService(requestRepo portsrepo.ProjectRequestRepositoryFacade) portssvc.ProjectRequestSvcFacade {
	return &projectRequestService{requestRepo: requestRepo}
}

var _ portssvc.ProjectRequestSvcFacade = (*projectRequestService)(nil)

func (s *projectRequestService) CreateRequest(ctx context.Context, req dto.CreateProjectRequest, actor domain.Actor) (*domain.ProjectRequest, error) {
	if err := s.RequireRequester(ctx, actor, "create requests"); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	date, err := dto.ParseDate(req.Date, domain.DateOnly(now))
	if err != nil {
		return nil, err
	}

	request := domain.ProjectRequest{
		RequestID:     uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		EstimatedCost: req.EstimatedCost,
		Description:   strings.TrimSpace(req.Description),
		Date:          date,
		Status:        domain.StatusDraft,
		RequesterID:   actor.UserID,
		RequesterName: actor.Name,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if req.Submit {
		request.Status = domain.StatusPending
		request.SubmittedAt = &now
	}

	if err := s.requestRepo.SaveRequest(ctx, request); err != nil {
		s.LogError(ctx, err, "Failed to save request", slog.String("title", request.Title))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.LogInfo(ctx, "Request created",
		slog.String("request_id", request.RequestID),
		slog.String("status", string(request.Status)))
	return &request, nil
}

func (s *projectRequestService) GetRequest(ctx context.Context, requestID string, actor domain.Actor) (*domain.ProjectRequest, error) {
	request, err := s.requestRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find request", slog.String("request_id", requestID))
		}
		return nil, fmt.Errorf("failed to get request %s: %w", requestID, err)
	}
	if !canView(actor, *request) {
		// Hide existence from members browsing other people's requests.
		return nil, fmt.Errorf("failed to get request %s: %w", requestID, apperrors.ErrNotFound)
	}
	return request, nil
}

func (s *projectRequestService) ListRequests(ctx context.Context, params dto.ListRequestsParams, actor domain.Actor) ([]domain.ProjectRequest, error) {
	statuses, err := parseStatuses(params.Status)
	if err != nil {
		return nil, err
	}

	requesterID := params.RequesterID
	if !actor.Role.IsAdmin() {
		if requesterID != "" && requesterID != actor.UserID {
			return nil, apperrors.NewAppError(http.StatusForbidden, "members can only list their own requests", apperrors.ErrForbidden)
		}
		requesterID = actor.UserID
	}

	var requests []domain.ProjectRequest
	switch {
	case requesterID != "":
		requests, err = s.requestRepo.ListRequestsByRequester(ctx, requesterID)
	case len(statuses) > 0:
		requests, err = s.requestRepo.ListRequestsByStatus(ctx, statuses...)
	default:
		requests, err = s.requestRepo.ListRequests(ctx)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to list requests")
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	if requesterID != "" && len(statuses) > 0 {
		requests = filterByStatus(requests, statuses)
	}
	return requests, nil
}

func canView(actor domain.Actor, r domain.ProjectRequest) bool {
	return actor.Role.IsAdmin() || r.RequesterID == actor.UserID || r.Status.IsPublic()
}

// parseStatuses parses a comma separated status filter. Aliases are accepted.
func parseStatuses(raw string) ([]domain.RequestStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.RequestStatus
	for _, part := range strings.Split(raw, ",") {
		st, err := domain.ParseRequestStatus(part)
		if err != nil {
			return nil, apperrors.NewAppError(http.StatusBadRequest, err.Error(), apperrors.ErrValidation)
		}
		out = append(out, st)
	}
	return out, nil
}

func filterByStatus(requests []domain.ProjectRequest, statuses []domain.RequestStatus) []domain.ProjectRequest {
	out := requests[:0:0]
	for _, r := range requests {
		for _, st := range statuses {
			if r.Status == st {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
