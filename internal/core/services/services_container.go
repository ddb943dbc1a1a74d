package services

import (
	"log/slog"

	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/platform/config"
)

// Infrastructure carries the platform pieces the services are wired to.
// Nil fields fall back to in-process behaviour.
type Infrastructure struct {
	Locker     portssvc.Locker
	Notices    portssvc.NoticeSink
	Renderer   portssvc.ReportRenderer
	ExtraFeeds []portsrepo.ChangeFeed
	Logger     *slog.Logger
}

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The returned projection is detached; the caller owns Attach and Detach.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, infra Infrastructure) (*portssvc.ServiceContainer, *ProjectionService) {
	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerService(repos.LedgerRepo)
	container.Requests = NewProjectRequestService(repos.RequestRepo)

	approvalOpts := []ApprovalServiceOption{WithMaxAttempts(cfg.ApprovalMaxAttempts)}
	if infra.Locker != nil {
		approvalOpts = append(approvalOpts, WithLocker(infra.Locker))
	}
	if infra.Notices != nil {
		approvalOpts = append(approvalOpts, WithNoticeSink(infra.Notices))
	}
	container.Approval = NewApprovalService(repos.RequestRepo, repos.LedgerRepo, repos.ApprovalWriter, approvalOpts...)

	feeds := append([]portsrepo.ChangeFeed{repos.ChangeFeed}, infra.ExtraFeeds...)
	projectionOpts := []ProjectionOption{
		WithPeriodMode(cfg.ProjectionPeriod),
		WithChangeFeeds(feeds...),
	}
	if infra.Logger != nil {
		projectionOpts = append(projectionOpts, WithProjectionLogger(infra.Logger))
	}
	projection := NewProjectionService(repos.LedgerRepo, repos.RequestRepo, projectionOpts...)
	container.Projection = projection

	var reportingOpts []ReportingServiceOption
	if infra.Renderer != nil {
		reportingOpts = append(reportingOpts, WithReportRenderer(infra.Renderer))
	}
	container.Reporting = NewReportingService(repos.LedgerRepo, reportingOpts...)

	return container, projection
}
