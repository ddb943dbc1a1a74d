package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
	// Events receives a change event after each successful write. May be nil.
	Events *changefeed.Broadcaster
}

func (r *BaseRepository) emit(entity domain.ChangeEntity, op domain.ChangeOp, id string) {
	if r.Events != nil {
		r.Events.Broadcast(domain.ChangeEvent{Entity: entity, Op: op, ID: id, At: time.Now().UTC()})
	}
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusServiceUnavailable, "failed to begin transaction", mapError(err))
	}
	return tx, nil
}

// Commit commits a transaction. A failed commit leaves the outcome unknown.
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		mapped := mapError(err)
		if apperrors.IsDefinitive(mapped) {
			return apperrors.NewAppError(http.StatusConflict, "failed to commit transaction", mapped)
		}
		return apperrors.NewAppError(http.StatusServiceUnavailable, "failed to commit transaction",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to rollback transaction", err)
	}
	return nil
}

// Postgres SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeInvalidTextRep       = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapError translates driver errors into the apperrors sentinels while keeping
// the driver error in the message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pgErr.ConstraintName)
		case pgErr.Code == codeSerializationFailure, pgErr.Code == codeDeadlockDetected:
			return fmt.Errorf("%w: %s", apperrors.ErrConcurrentModification, pgErr.Message)
		case pgErr.Code == codeForeignKeyViolation, pgErr.Code == codeCheckViolation, pgErr.Code == codeInvalidTextRep:
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, pgErr.Message)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return fmt.Errorf("%w: %s", apperrors.ErrStoreUnavailable, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrInternal, pgErr.Message, pgErr.Code)
	}

	// Timeouts, cancellations and broken connections: the server may or may not
	// have applied the statement.
	return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
}
