package mapping

import (
	"fmt"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/models"
)

// ToModelProjectRequest converts a domain.ProjectRequest to a models.ProjectRequest
func ToModelProjectRequest(d domain.ProjectRequest) models.ProjectRequest {
	return models.ProjectRequest{
		RequestID:     d.RequestID,
		Title:         d.Title,
		EstimatedCost: d.EstimatedCost,
		Description:   optionalString(d.Description),
		Date:          domain.DateOnly(d.Date),
		Status:        string(d.Status),
		RequesterID:   d.RequesterID,
		RequesterName: optionalString(d.RequesterName),
		SubmittedAt:   d.SubmittedAt,
		ApprovedAt:    d.ApprovedAt,
		ApprovedBy:    d.ApprovedBy,
		RejectedAt:    d.RejectedAt,
		CompletedAt:   d.CompletedAt,
		Version:       d.Version,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainProjectRequest converts a models.ProjectRequest to a domain.ProjectRequest.
// Status aliases are normalized; an unknown status is an error.
func ToDomainProjectRequest(m models.ProjectRequest) (domain.ProjectRequest, error) {
	status, err := domain.ParseRequestStatus(m.Status)
	if err != nil {
		return domain.ProjectRequest{}, fmt.Errorf("request %s: %w", m.RequestID, err)
	}
	return domain.ProjectRequest{
		RequestID:     m.RequestID,
		Title:         m.Title,
		EstimatedCost: m.EstimatedCost,
		Description:   derefString(m.Description),
		Date:          m.Date,
		Status:        status,
		RequesterID:   m.RequesterID,
		RequesterName: derefString(m.RequesterName),
		SubmittedAt:   m.SubmittedAt,
		ApprovedAt:    m.ApprovedAt,
		ApprovedBy:    m.ApprovedBy,
		RejectedAt:    m.RejectedAt,
		CompletedAt:   m.CompletedAt,
		Version:       m.Version,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainProjectRequestSlice converts a slice of models.ProjectRequest
func ToDomainProjectRequestSlice(ms []models.ProjectRequest) ([]domain.ProjectRequest, error) {
	out := make([]domain.ProjectRequest, 0, len(ms))
	for _, m := range ms {
		d, err := ToDomainProjectRequest(m)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
