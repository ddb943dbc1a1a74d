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
	"github.com/SscSPs/org_funding_app/internal/utils/accounting"
	"github.com/google/uuid"
)

// ledgerService implements portssvc.LedgerSvcFacade
type ledgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction", slog.String("transaction_id", transactionID))
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	txns, next, err := s.ledgerRepo.ListTransactionsPage(ctx, params.Limit, token)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.Int("limit", params.Limit))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    next,
	}, nil
}

func (s *ledgerService) GetBalance(ctx context.Context) (*domain.BalanceSummary, error) {
	txns, err := s.ledgerRepo.ListTransactions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to read ledger for balance")
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}
	summary := accounting.Compute(txns, domain.Period{})
	return &summary, nil
}

func (s *ledgerService) RecordTransaction(ctx context.Context, req dto.CreateTransactionRequest, actor domain.Actor) (*domain.Transaction, error) {
	if err := s.RequireAdmin(ctx, actor, "record transactions"); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.LinkedRequestID != nil {
		return nil, apperrors.NewAppError(http.StatusBadRequest, "linked entries are created by approving a request", apperrors.ErrValidation)
	}
	kind := domain.TransactionKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if !kind.IsValid() {
		return nil, apperrors.NewAppError(http.StatusBadRequest, fmt.Sprintf("kind must be INCOME or EXPENSE, got %q", req.Kind), apperrors.ErrValidation)
	}

	now := s.now()
	date, err := dto.ParseDate(req.Date, domain.DateOnly(now))
	if err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		Kind:          kind,
		Description:   strings.TrimSpace(req.Description),
		Date:          date,
		CreatedAt:     now,
		CreatedBy:     actor.UserID,
	}
	if err := s.ledgerRepo.AppendTransaction(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to append transaction", slog.String("kind", string(kind)))
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.LogInfo(ctx, "Transaction recorded",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("kind", string(kind)),
		slog.String("amount", txn.Amount.String()))
	return &txn, nil
}

func (s *ledgerService) RemoveTransaction(ctx context.Context, transactionID string, actor domain.Actor) error {
	if err := s.RequireAdmin(ctx, actor, "remove transactions"); err != nil {
		return err
	}
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to remove transaction %s: %w", transactionID, err)
	}
	if txn.IsLinked() {
		return apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("transaction %s is the expense of request %s and cannot be removed", transactionID, *txn.LinkedRequestID),
			apperrors.ErrConflict)
	}
	if err := s.ledgerRepo.RemoveTransaction(ctx, transactionID); err != nil {
		s.LogError(ctx, err, "Failed to remove transaction", slog.String("transaction_id", transactionID))
		return fmt.Errorf("failed to remove transaction %s: %w", transactionID, err)
	}
	s.LogInfo(ctx, "Transaction removed", slog.String("transaction_id", transactionID))
	return nil
}
