package services

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/dto"
)

// LedgerReaderSvc defines read operations for the ledger
type LedgerReaderSvc interface {
	// GetTransaction retrieves a specific transaction by its ID.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of ledger transactions.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// GetBalance computes the current balance from the full transaction history.
	GetBalance(ctx context.Context) (*domain.BalanceSummary, error)
}

// LedgerWriterSvc defines write operations for the ledger
type LedgerWriterSvc interface {
	// RecordTransaction posts a direct admin entry.
	RecordTransaction(ctx context.Context, req dto.CreateTransactionRequest, actor domain.Actor) (*domain.Transaction, error)

	// RemoveTransaction deletes an unlinked entry.
	RemoveTransaction(ctx context.Context, transactionID string, actor domain.Actor) error
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
