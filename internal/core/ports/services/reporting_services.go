package services

import (
	"context"
	"io"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// ReportingService defines read-only operations for report consumers
type ReportingService interface {
	// LedgerReport returns the transactions dated inside period with their totals.
	LedgerReport(ctx context.Context, period domain.Period) (*domain.LedgerReport, error)

	// ExportLedgerReport renders the ledger report for period into w and returns
	// the content type of what was written.
	ExportLedgerReport(ctx context.Context, period domain.Period, w io.Writer) (string, error)
}

// ReportRenderer renders a ledger report into a document format.
type ReportRenderer interface {
	Render(report domain.LedgerReport, w io.Writer) error
	ContentType() string
}
