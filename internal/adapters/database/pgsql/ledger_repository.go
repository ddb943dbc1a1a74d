package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/SscSPs/org_funding_app/internal/models"
	"github.com/SscSPs/org_funding_app/internal/utils/mapping"
	"github.com/SscSPs/org_funding_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, amount, kind, description, txn_date, linked_request_id, created_at, created_by`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger transactions.
func newPgxLedgerRepository(pool *pgxpool.Pool, events *changefeed.Broadcaster) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool, Events: events}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.Amount,
		&m.Kind,
		&m.Description,
		&m.Date,
		&m.LinkedRequestID,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	return m, err
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	modelTxns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", mapError(err))
	}
	return mapping.ToDomainTransactionSlice(modelTxns), nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, mapError(err))
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// FindTransactionByLinkedRequestID retrieves the expense posted for an approved request.
func (r *PgxLedgerRepository) FindTransactionByLinkedRequestID(ctx context.Context, requestID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE linked_request_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction linked to %s: %w", requestID, mapError(err))
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// ListTransactions retrieves the whole ledger in ascending date order.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY txn_date, created_at, transaction_id;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", mapError(err))
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsPage retrieves one page of the ledger, newest first, using keyset pagination.
func (r *PgxLedgerRepository) ListTransactionsPage(ctx context.Context, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	limit = pagination.ClampLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if nextToken != nil && *nextToken != "" {
		cursor, derr := pagination.DecodeCursor(*nextToken)
		if derr != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, derr)
		}
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			WHERE (txn_date, created_at, transaction_id) < ($1, $2, $3)
			ORDER BY txn_date DESC, created_at DESC, transaction_id DESC
			LIMIT $4;
		`
		rows, err = r.Pool.Query(ctx, query, cursor.Date, cursor.CreatedAt, cursor.ID, limit+1)
	} else {
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			ORDER BY txn_date DESC, created_at DESC, transaction_id DESC
			LIMIT $1;
		`
		rows, err = r.Pool.Query(ctx, query, limit+1)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transaction page: %w", mapError(err))
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}
	return txns, next, nil
}

// AppendTransaction inserts a new ledger entry.
func (r *PgxLedgerRepository) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	if err := insertTransaction(ctx, r.Pool, mapping.ToModelTransaction(txn)); err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", txn.TransactionID, err)
	}
	r.emit(domain.EntityTransaction, domain.OpInsert, txn.TransactionID)
	return nil
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertTransaction(ctx context.Context, db querier, m models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := db.Exec(ctx, query,
		m.TransactionID,
		m.Amount,
		m.Kind,
		m.Description,
		m.Date,
		m.LinkedRequestID,
		m.CreatedAt,
		m.CreatedBy,
	)
	return mapError(err)
}

// RemoveTransaction deletes an unlinked entry. Linked entries are refused with ErrConflict.
func (r *PgxLedgerRepository) RemoveTransaction(ctx context.Context, transactionID string) error {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM transactions WHERE transaction_id = $1 AND linked_request_id IS NULL;`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to remove transaction %s: %w", transactionID, mapError(err))
	}
	if tag.RowsAffected() == 1 {
		r.emit(domain.EntityTransaction, domain.OpDelete, transactionID)
		return nil
	}

	if _, err := r.FindTransactionByID(ctx, transactionID); err != nil {
		return err
	}
	return fmt.Errorf("transaction %s is linked to a request: %w", transactionID, apperrors.ErrConflict)
}
