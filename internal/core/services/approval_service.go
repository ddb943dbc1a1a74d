package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/core/workflow"
	"github.com/SscSPs/org_funding_app/internal/utils"
	"github.com/SscSPs/org_funding_app/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultApprovalMaxAttempts bounds how often a transition is retried after losing a race.
const DefaultApprovalMaxAttempts = 3

// approvalService implements portssvc.ApprovalSvc
type approvalService struct {
	BaseService
	requestRepo portsrepo.ProjectRequestRepositoryFacade
	ledgerRepo  portsrepo.LedgerReader
	approvals   portsrepo.ApprovalWriter
	locker      portssvc.Locker
	notices     portssvc.NoticeSink
	maxAttempts int
}

// ApprovalServiceOption is a functional option for configuring the approval service
type ApprovalServiceOption func(*approvalService)

// WithLocker serializes transitions of one request through locker.
func WithLocker(locker portssvc.Locker) ApprovalServiceOption {
	return func(s *approvalService) {
		s.locker = locker
	}
}

// WithNoticeSink sends a notice after every successful transition.
func WithNoticeSink(sink portssvc.NoticeSink) ApprovalServiceOption {
	return func(s *approvalService) {
		s.notices = sink
	}
}

// WithMaxAttempts sets the retry bound for concurrent modifications.
func WithMaxAttempts(n int) ApprovalServiceOption {
	return func(s *approvalService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithApprovalClock overrides the time source.
func WithApprovalClock(now func() time.Time) ApprovalServiceOption {
	return func(s *approvalService) {
		s.Now = now
	}
}

// NewApprovalService creates a new approval service with the provided options
func NewApprovalService(
	requestRepo portsrepo.ProjectRequestRepositoryFacade,
	ledgerRepo portsrepo.LedgerReader,
	approvals portsrepo.ApprovalWriter,
	options ...ApprovalServiceOption,
) portssvc.ApprovalSvc {
	svc := &approvalService{
		requestRepo: requestRepo,
		ledgerRepo:  ledgerRepo,
		approvals:   approvals,
		locker:      noopLocker{},
		maxAttempts: DefaultApprovalMaxAttempts,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ApprovalSvc = (*approvalService)(nil)

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

func lockKey(requestID string) string {
	return "project_request:" + requestID
}

// Approve moves a PENDING request to ACTIVE and posts its expense in one atomic write.
func (s *approvalService) Approve(ctx context.Context, requestID string, approver domain.Actor) (*domain.TransitionResult, error) {
	if err := s.RequireAdmin(ctx, approver, "approve requests"); err != nil {
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, lockKey(requestID))
	if err != nil {
		s.LogError(ctx, err, "Failed to acquire request lock", slog.String("request_id", requestID))
		return nil, fmt.Errorf("failed to lock request %s: %w", requestID, err)
	}
	defer release()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		request, err := s.requestRepo.FindRequestByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to load request %s: %w", requestID, err)
		}

		step, err := workflow.NextState(request.Status, workflow.EventApprove)
		if err != nil {
			return nil, invalidTransition(err)
		}
		if !step.Applied {
			return s.alreadyApproved(ctx, *request)
		}

		warnings := s.balanceWarnings(ctx, request.EstimatedCost)
		activation := s.buildActivation(*request, approver)

		updated, err := s.approvals.ActivateWithExpense(ctx, activation)
		if err == nil {
			s.LogInfo(ctx, "Request approved",
				slog.String("request_id", requestID),
				slog.String("transaction_id", activation.Expense.TransactionID),
				slog.String("amount", activation.Expense.Amount.String()),
				slog.Int("attempt", attempt))
			s.notify(*request, *updated, approver)
			expense := activation.Expense
			return &domain.TransitionResult{Request: *updated, Transaction: &expense, Warnings: warnings}, nil
		}

		switch {
		case errors.Is(err, apperrors.ErrConcurrentModification):
			s.LogWarn(ctx, "Approval lost a race, re-reading request",
				slog.String("request_id", requestID), slog.Int("attempt", attempt))
			continue
		case errors.Is(err, apperrors.ErrDuplicate):
			// Another writer already posted the linked expense.
			s.LogWarn(ctx, "Linked expense already exists, re-reading request", slog.String("request_id", requestID))
			current, rerr := s.requestRepo.FindRequestByID(ctx, requestID)
			if rerr != nil {
				return nil, fmt.Errorf("failed to re-read request %s: %w", requestID, rerr)
			}
			if current.Status.HoldsLinkedExpense() {
				return s.alreadyApproved(ctx, *current)
			}
			return nil, apperrors.NewAppError(http.StatusConflict,
				fmt.Sprintf("request %s has a linked expense but is %s", requestID, current.Status), apperrors.ErrConflict)
		case !apperrors.IsDefinitive(err):
			// The write may have landed. Our expense ID tells us whether it did.
			if res, ok := s.recheckActivation(ctx, activation, warnings); ok {
				return res, nil
			}
			s.LogError(ctx, err, "Approval outcome unknown", slog.String("request_id", requestID))
			return nil, fmt.Errorf("failed to approve request %s: %w", requestID, err)
		default:
			s.LogError(ctx, err, "Approval failed", slog.String("request_id", requestID))
			return nil, fmt.Errorf("failed to approve request %s: %w", requestID, err)
		}
	}

	return nil, apperrors.NewAppError(http.StatusConflict,
		fmt.Sprintf("request %s kept changing, gave up after %d attempts", requestID, s.maxAttempts),
		apperrors.ErrConcurrentModification)
}

func (s *approvalService) buildActivation(request domain.ProjectRequest, approver domain.Actor) domain.Activation {
	now := s.now()
	approverID := approver.UserID
	requestID := request.RequestID
	return domain.Activation{
		Change: domain.StatusChange{
			RequestID:       requestID,
			ExpectedVersion: request.Version,
			From:            domain.StatusPending,
			To:              domain.StatusActive,
			At:              now,
			ActorID:         approverID,
			ApprovedAt:      &now,
			ApprovedBy:      &approverID,
		},
		Expense: domain.Transaction{
			TransactionID:   uuid.NewString(),
			Amount:          request.EstimatedCost,
			Kind:            domain.Expense,
			Description:     fmt.Sprintf("Project: %s", request.Title),
			Date:            domain.DateOnly(now),
			LinkedRequestID: &requestID,
			CreatedAt:       now,
			CreatedBy:       approverID,
		},
	}
}

// balanceWarnings is advisory only: approval proceeds whatever it returns.
func (s *approvalService) balanceWarnings(ctx context.Context, cost decimal.Decimal) []string {
	txns, err := s.ledgerRepo.ListTransactions(ctx)
	if err != nil {
		s.LogWarn(ctx, "Balance check skipped", slog.String("error", err.Error()))
		return []string{"balance could not be checked"}
	}
	balance := accounting.Compute(txns, domain.Period{}).Balance
	if balance.LessThan(cost) {
		s.LogWarn(ctx, "Approving beyond available balance",
			slog.String("balance", balance.String()), slog.String("cost", cost.String()))
		return []string{fmt.Sprintf("insufficient balance: available %s, requested %s",
			utils.FormatAmount(balance), utils.FormatAmount(cost))}
	}
	return nil
}

func (s *approvalService) alreadyApproved(ctx context.Context, request domain.ProjectRequest) (*domain.TransitionResult, error) {
	result := &domain.TransitionResult{Request: request, AlreadyApplied: true}
	txn, err := s.ledgerRepo.FindTransactionByLinkedRequestID(ctx, request.RequestID)
	switch {
	case err == nil:
		result.Transaction = txn
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Approved request has no linked expense",
			slog.String("request_id", request.RequestID), slog.String("status", string(request.Status)))
	default:
		s.LogWarn(ctx, "Could not load linked expense", slog.String("request_id", request.RequestID), slog.String("error", err.Error()))
	}
	s.LogInfo(ctx, "Approve was a no-op", slog.String("request_id", request.RequestID), slog.String("status", string(request.Status)))
	return result, nil
}

func (s *approvalService) recheckActivation(ctx context.Context, activation domain.Activation, warnings []string) (*domain.TransitionResult, bool) {
	txn, err := s.ledgerRepo.FindTransactionByLinkedRequestID(ctx, activation.Change.RequestID)
	if err != nil || txn.TransactionID != activation.Expense.TransactionID {
		return nil, false
	}
	request, err := s.requestRepo.FindRequestByID(ctx, activation.Change.RequestID)
	if err != nil {
		return nil, false
	}
	return &domain.TransitionResult{Request: *request, Transaction: txn, Warnings: warnings}, true
}

func (s *approvalService) Submit(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error) {
	return s.transition(ctx, requestID, actor, workflow.EventSubmit, func(r domain.ProjectRequest) error {
		if err := s.RequireRequester(ctx, actor, "submit requests"); err != nil {
			return err
		}
		if !actor.Role.IsAdmin() && r.RequesterID != actor.UserID {
			return apperrors.NewAppError(http.StatusForbidden, "only the requester can submit this request", apperrors.ErrForbidden)
		}
		return nil
	})
}

func (s *approvalService) Reject(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error) {
	return s.transition(ctx, requestID, actor, workflow.EventReject, func(domain.ProjectRequest) error {
		return s.RequireAdmin(ctx, actor, "reject requests")
	})
}

func (s *approvalService) MarkComplete(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error) {
	return s.transition(ctx, requestID, actor, workflow.EventMarkComplete, func(r domain.ProjectRequest) error {
		if actor.Role.IsAdmin() || (actor.Role.CanRequest() && r.RequesterID == actor.UserID) {
			return nil
		}
		return apperrors.NewAppError(http.StatusForbidden, "only the requester or an admin can mark a project complete", apperrors.ErrForbidden)
	})
}

func (s *approvalService) VerifyCompletion(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error) {
	return s.transition(ctx, requestID, actor, workflow.EventVerify, func(domain.ProjectRequest) error {
		return s.RequireAdmin(ctx, actor, "verify completion")
	})
}

// transition runs a status-only workflow step with the same locking and retry rules as Approve.
func (s *approvalService) transition(
	ctx context.Context,
	requestID string,
	actor domain.Actor,
	event workflow.Event,
	authorize func(domain.ProjectRequest) error,
) (*domain.TransitionResult, error) {
	release, err := s.locker.Acquire(ctx, lockKey(requestID))
	if err != nil {
		s.LogError(ctx, err, "Failed to acquire request lock", slog.String("request_id", requestID))
		return nil, fmt.Errorf("failed to lock request %s: %w", requestID, err)
	}
	defer release()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		request, err := s.requestRepo.FindRequestByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to load request %s: %w", requestID, err)
		}
		if err := authorize(*request); err != nil {
			return nil, err
		}

		step, err := workflow.NextState(request.Status, event)
		if err != nil {
			return nil, invalidTransition(err)
		}
		if !step.Applied {
			s.LogInfo(ctx, "Transition was a no-op",
				slog.String("request_id", requestID), slog.String("event", string(event)), slog.String("status", string(request.Status)))
			return &domain.TransitionResult{Request: *request, AlreadyApplied: true}, nil
		}

		change := s.buildChange(*request, step, actor)
		updated, err := s.requestRepo.UpdateRequestStatus(ctx, change)
		if err == nil {
			s.LogInfo(ctx, "Request transitioned",
				slog.String("request_id", requestID),
				slog.String("from", string(step.From)),
				slog.String("to", string(step.To)))
			s.notify(*request, *updated, actor)
			return &domain.TransitionResult{Request: *updated}, nil
		}
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogWarn(ctx, "Transition lost a race, re-reading request",
				slog.String("request_id", requestID), slog.Int("attempt", attempt))
			continue
		}
		s.LogError(ctx, err, "Transition failed", slog.String("request_id", requestID), slog.String("event", string(event)))
		return nil, fmt.Errorf("failed to %s request %s: %w", event, requestID, err)
	}

	return nil, apperrors.NewAppError(http.StatusConflict,
		fmt.Sprintf("request %s kept changing, gave up after %d attempts", requestID, s.maxAttempts),
		apperrors.ErrConcurrentModification)
}

func (s *approvalService) buildChange(request domain.ProjectRequest, step workflow.Transition, actor domain.Actor) domain.StatusChange {
	now := s.now()
	change := domain.StatusChange{
		RequestID:       request.RequestID,
		ExpectedVersion: request.Version,
		From:            step.From,
		To:              step.To,
		At:              now,
		ActorID:         actor.UserID,
	}
	switch step.To {
	case domain.StatusPending:
		change.SubmittedAt = &now
	case domain.StatusRejected:
		change.RejectedAt = &now
	case domain.StatusCompleted:
		change.CompletedAt = &now
	}
	return change
}

func (s *approvalService) notify(before, after domain.ProjectRequest, actor domain.Actor) {
	if s.notices == nil {
		return
	}
	s.notices.Publish(domain.TransitionNotice{
		RequestID: after.RequestID,
		Title:     after.Title,
		From:      before.Status,
		To:        after.Status,
		Amount:    after.EstimatedCost,
		ActorID:   actor.UserID,
		ActorName: actor.Name,
		At:        after.LastUpdatedAt,
	})
}

func invalidTransition(err error) error {
	return apperrors.NewAppError(http.StatusConflict, err.Error(), err)
}
