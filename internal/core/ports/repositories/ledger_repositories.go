package repositories

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// LedgerReader defines read operations for ledger transactions
type LedgerReader interface {
	// FindTransactionByID retrieves a specific transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByLinkedRequestID retrieves the expense posted when requestID was approved.
	FindTransactionByLinkedRequestID(ctx context.Context, requestID string) (*domain.Transaction, error)

	// ListTransactions retrieves the whole ledger ordered by date, then creation time.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// ListTransactionsPage retrieves one page of the ledger using token-based pagination.
	// It returns the transactions, a token for the next page, and an error.
	ListTransactionsPage(ctx context.Context, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerWriter defines write operations for ledger transactions
type LedgerWriter interface {
	// AppendTransaction persists a new transaction. A second transaction linked to
	// the same request is rejected with apperrors.ErrDuplicate.
	AppendTransaction(ctx context.Context, txn domain.Transaction) error

	// RemoveTransaction deletes a transaction by ID.
	RemoveTransaction(ctx context.Context, transactionID string) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
