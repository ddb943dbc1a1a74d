package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectRequest is a row of the project_requests table.
type ProjectRequest struct {
	RequestID     string          `db:"request_id"`
	Title         string          `db:"title"`
	EstimatedCost decimal.Decimal `db:"estimated_cost"`
	Description   *string         `db:"description"`
	Date          time.Time       `db:"request_date"`
	Status        string          `db:"status"`
	RequesterID   string          `db:"requester_id"`
	RequesterName *string         `db:"requester_name"`
	SubmittedAt   *time.Time      `db:"submitted_at"`
	ApprovedAt    *time.Time      `db:"approved_at"`
	ApprovedBy    *string         `db:"approved_by"`
	RejectedAt    *time.Time      `db:"rejected_at"`
	CompletedAt   *time.Time      `db:"completed_at"`
	Version       int64           `db:"version"`
	AuditFields
}
