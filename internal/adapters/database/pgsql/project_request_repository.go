package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/SscSPs/org_funding_app/internal/core/workflow"
	"github.com/SscSPs/org_funding_app/internal/models"
	"github.com/SscSPs/org_funding_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `request_id, title, estimated_cost, description, request_date, status,
	requester_id, requester_name, submitted_at, approved_at, approved_by, rejected_at, completed_at,
	version, created_at, created_by, last_updated_at, last_updated_by`

type PgxProjectRequestRepository struct {
	BaseRepository
}

// newPgxProjectRequestRepository creates a new repository for project requests.
func newPgxProjectRequestRepository(pool *pgxpool.Pool, events *changefeed.Broadcaster) *PgxProjectRequestRepository {
	return &PgxProjectRequestRepository{BaseRepository: BaseRepository{Pool: pool, Events: events}}
}

var (
	_ portsrepo.ProjectRequestRepositoryFacade = (*PgxProjectRequestRepository)(nil)
	_ portsrepo.ApprovalWriter                 = (*PgxProjectRequestRepository)(nil)
)

func scanRequest(row pgx.Row) (models.ProjectRequest, error) {
	var m models.ProjectRequest
	err := row.Scan(
		&m.RequestID,
		&m.Title,
		&m.EstimatedCost,
		&m.Description,
		&m.Date,
		&m.Status,
		&m.RequesterID,
		&m.RequesterName,
		&m.SubmittedAt,
		&m.ApprovedAt,
		&m.ApprovedBy,
		&m.RejectedAt,
		&m.CompletedAt,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxProjectRequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]domain.ProjectRequest, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", mapError(err))
	}
	defer rows.Close()

	modelRequests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ProjectRequest, error) {
		return scanRequest(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan requests: %w", mapError(err))
	}
	return mapping.ToDomainProjectRequestSlice(modelRequests)
}

// FindRequestByID retrieves a request by its ID.
func (r *PgxProjectRequestRepository) FindRequestByID(ctx context.Context, requestID string) (*domain.ProjectRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM project_requests WHERE request_id = $1;`
	m, err := scanRequest(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find request %s: %w", requestID, mapError(err))
	}
	request, err := mapping.ToDomainProjectRequest(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return &request, nil
}

// ListRequests retrieves every request, newest first.
func (r *PgxProjectRequestRepository) ListRequests(ctx context.Context) ([]domain.ProjectRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM project_requests ORDER BY created_at DESC, request_id DESC;`)
}

// ListRequestsByStatus retrieves requests in any of the given statuses. Stored
// statuses may use legacy spellings, so filtering happens after normalization.
func (r *PgxProjectRequestRepository) ListRequestsByStatus(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.ProjectRequest, error) {
	all, err := r.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[domain.RequestStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]domain.ProjectRequest, 0, len(all))
	for _, req := range all {
		if want[req.Status] {
			out = append(out, req)
		}
	}
	return out, nil
}

// ListRequestsByRequester retrieves the requests created by one user, newest first.
func (r *PgxProjectRequestRepository) ListRequestsByRequester(ctx context.Context, requesterID string) ([]domain.ProjectRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM project_requests WHERE requester_id = $1 ORDER BY created_at DESC, request_id DESC;`
	return r.queryRequests(ctx, query, requesterID)
}

// SaveRequest inserts a new request.
func (r *PgxProjectRequestRepository) SaveRequest(ctx context.Context, request domain.ProjectRequest) error {
	m := mapping.ToModelProjectRequest(request)
	query := `
		INSERT INTO project_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.RequestID,
		m.Title,
		m.EstimatedCost,
		m.Description,
		m.Date,
		m.Status,
		m.RequesterID,
		m.RequesterName,
		m.SubmittedAt,
		m.ApprovedAt,
		m.ApprovedBy,
		m.RejectedAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save request %s: %w", request.RequestID, mapError(err))
	}
	r.emit(domain.EntityProjectRequest, domain.OpInsert, request.RequestID)
	return nil
}

// statusUpdateSQL compares on version only: the stored status may be a legacy
// spelling, and every write bumps the version anyway.
const statusUpdateSQL = `
	UPDATE project_requests SET
		status = $3,
		submitted_at = COALESCE($4, submitted_at),
		approved_at = COALESCE($5, approved_at),
		approved_by = COALESCE($6, approved_by),
		rejected_at = COALESCE($7, rejected_at),
		completed_at = COALESCE($8, completed_at),
		version = version + 1,
		last_updated_at = $9,
		last_updated_by = $10
	WHERE request_id = $1 AND version = $2
	RETURNING ` + requestColumns + `;
`

func (r *PgxProjectRequestRepository) applyChange(ctx context.Context, db querier, change domain.StatusChange) (*domain.ProjectRequest, error) {
	row := db.QueryRow(ctx, statusUpdateSQL,
		change.RequestID,
		change.ExpectedVersion,
		string(change.To),
		change.SubmittedAt,
		change.ApprovedAt,
		change.ApprovedBy,
		change.RejectedAt,
		change.CompletedAt,
		change.At,
		change.ActorID,
	)

	m, err := scanRequest(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to update request %s: %w", change.RequestID, mapError(err))
		}
		// Either the request is gone or someone else bumped the version.
		if _, findErr := r.FindRequestByID(ctx, change.RequestID); findErr != nil {
			return nil, findErr
		}
		return nil, fmt.Errorf("request %s moved past version %d: %w",
			change.RequestID, change.ExpectedVersion, apperrors.ErrConcurrentModification)
	}

	updated, err := mapping.ToDomainProjectRequest(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	return &updated, nil
}

// UpdateRequestStatus applies a single legal status change guarded by the version.
func (r *PgxProjectRequestRepository) UpdateRequestStatus(ctx context.Context, change domain.StatusChange) (*domain.ProjectRequest, error) {
	if err := workflow.ValidateTransition(change.From, change.To); err != nil {
		return nil, err
	}
	updated, err := r.applyChange(ctx, r.Pool, change)
	if err != nil {
		return nil, err
	}
	r.emit(domain.EntityProjectRequest, domain.OpUpdate, change.RequestID)
	return updated, nil
}

// ActivateWithExpense moves the request to ACTIVE and inserts its expense in one
// database transaction. The partial unique index on linked_request_id rejects a
// second expense for the same request.
func (r *PgxProjectRequestRepository) ActivateWithExpense(ctx context.Context, activation domain.Activation) (*domain.ProjectRequest, error) {
	change := activation.Change
	if change.From != domain.StatusPending || change.To != domain.StatusActive {
		return nil, &workflow.InvalidTransitionError{From: change.From, Event: workflow.EventApprove, To: change.To}
	}
	if !activation.Expense.LinkedTo(change.RequestID) {
		return nil, fmt.Errorf("%w: expense is not linked to request %s", apperrors.ErrValidation, change.RequestID)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	updated, err := r.applyChange(ctx, tx, change)
	if err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, mapping.ToModelTransaction(activation.Expense)); err != nil {
		return nil, fmt.Errorf("failed to post expense for request %s: %w", change.RequestID, err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	r.emit(domain.EntityProjectRequest, domain.OpUpdate, change.RequestID)
	r.emit(domain.EntityTransaction, domain.OpInsert, activation.Expense.TransactionID)
	return updated, nil
}
