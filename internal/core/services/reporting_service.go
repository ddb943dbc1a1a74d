package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	ledgerRepo portsrepo.LedgerReader
	renderer   portssvc.ReportRenderer
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithReportRenderer sets the renderer used for exports.
func WithReportRenderer(renderer portssvc.ReportRenderer) ReportingServiceOption {
	return func(s *reportingService) {
		s.renderer = renderer
	}
}

// WithReportingClock overrides the time source.
func WithReportingClock(now func() time.Time) ReportingServiceOption {
	return func(s *reportingService) {
		s.Now = now
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(ledgerRepo portsrepo.LedgerReader, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{ledgerRepo: ledgerRepo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReportingService = (*reportingService)(nil)

// LedgerReport returns the entries dated in [period.From, period.To) with totals
// and the running balance at the end of the period.
func (s *reportingService) LedgerReport(ctx context.Context, period domain.Period) (*domain.LedgerReport, error) {
	if period.From.IsZero() || period.To.IsZero() || !period.From.Before(period.To) {
		return nil, apperrors.NewAppError(http.StatusBadRequest, "report period needs from < to", apperrors.ErrValidation)
	}

	txns, err := s.ledgerRepo.ListTransactions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to read ledger for report")
		return nil, fmt.Errorf("failed to build ledger report: %w", err)
	}

	closing := decimal.Zero
	for _, txn := range txns {
		if txn.Date.Before(period.To) {
			closing = closing.Add(accounting.SignedAmount(txn))
		}
	}

	report := &domain.LedgerReport{
		Period:         period,
		Transactions:   accounting.FilterByPeriod(txns, period),
		Summary:        accounting.Compute(txns, period),
		ClosingBalance: closing,
		GeneratedAt:    s.now(),
	}

	s.LogInfo(ctx, "Ledger report generated",
		slog.String("from", period.From.Format(time.DateOnly)),
		slog.String("to", period.To.Format(time.DateOnly)),
		slog.Int("row_count", len(report.Transactions)))
	return report, nil
}

func (s *reportingService) ExportLedgerReport(ctx context.Context, period domain.Period, w io.Writer) (string, error) {
	if s.renderer == nil {
		return "", apperrors.NewAppError(http.StatusNotImplemented, "no report renderer configured", apperrors.ErrInternal)
	}
	report, err := s.LedgerReport(ctx, period)
	if err != nil {
		return "", err
	}
	if err := s.renderer.Render(*report, w); err != nil {
		s.LogError(ctx, err, "Failed to render ledger report")
		return "", fmt.Errorf("failed to render ledger report: %w", err)
	}
	return s.renderer.ContentType(), nil
}
