package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.RequestStatus
	}{
		{"pending", domain.StatusPending},
		{"PENDING", domain.StatusPending},
		{" Active ", domain.StatusActive},
		{"pending-completion", domain.StatusPendingCompletion},
		{"PENDING_COMPLETION", domain.StatusPendingCompletion},
		{"completed", domain.StatusCompleted},
		{"Rejected", domain.StatusRejected},
		{"draft", domain.StatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseRequestStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.ParseRequestStatus("archived")
	assert.Error(t, err)
}

func TestRequestStatus_HoldsLinkedExpense(t *testing.T) {
	holding := map[domain.RequestStatus]bool{
		domain.StatusDraft:             false,
		domain.StatusPending:           false,
		domain.StatusActive:            true,
		domain.StatusPendingCompletion: true,
		domain.StatusCompleted:         true,
		domain.StatusRejected:          false,
	}
	for _, s := range domain.AllRequestStatuses {
		assert.Equal(t, holding[s], s.HoldsLinkedExpense(), "status %s", s)
	}
}

func TestStatusChange_Apply(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	approver := "admin-1"
	req := domain.ProjectRequest{
		RequestID:     "req-1",
		EstimatedCost: decimal.NewFromInt(250),
		Status:        domain.StatusPending,
		Version:       3,
	}

	updated := domain.StatusChange{
		RequestID:       "req-1",
		ExpectedVersion: 3,
		From:            domain.StatusPending,
		To:              domain.StatusActive,
		At:              now,
		ActorID:         approver,
		ApprovedAt:      &now,
		ApprovedBy:      &approver,
	}.Apply(req)

	assert.Equal(t, domain.StatusActive, updated.Status)
	assert.Equal(t, int64(4), updated.Version)
	assert.Equal(t, &now, updated.ApprovedAt)
	assert.Equal(t, approver, updated.LastUpdatedBy)
	assert.Nil(t, updated.CompletedAt)
	// original untouched
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, int64(3), req.Version)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, domain.RoleAdmin, domain.ParseRole("admin"))
	assert.Equal(t, domain.RoleAdmin, domain.ParseRole("ADMIN"))
	assert.Equal(t, domain.RoleSuperAdmin, domain.ParseRole("SUPER_ADMIN"))
	assert.Equal(t, domain.RoleSuperAdmin, domain.ParseRole("super-admin"))
	assert.Equal(t, domain.RoleMember, domain.ParseRole("member"))
	assert.Equal(t, domain.RoleReadOnly, domain.ParseRole("guest"))

	assert.True(t, domain.RoleSuperAdmin.IsAdmin())
	assert.False(t, domain.RoleMember.IsAdmin())
	assert.True(t, domain.RoleMember.CanRequest())
	assert.False(t, domain.RoleReadOnly.CanRequest())
}

func TestParseTransactionKind(t *testing.T) {
	assert.Equal(t, domain.Income, domain.ParseTransactionKind("income"))
	assert.Equal(t, domain.Income, domain.ParseTransactionKind("INCOME"))
	assert.Equal(t, domain.Expense, domain.ParseTransactionKind("expense"))
	assert.Equal(t, domain.Expense, domain.ParseTransactionKind(""))
	assert.Equal(t, domain.Expense, domain.ParseTransactionKind("donation?"))
}

func TestSnapshot_TransparencyHidesNonPublic(t *testing.T) {
	snap := domain.Snapshot{
		PublicProjects: []domain.ProjectRequest{
			{RequestID: "a", Status: domain.StatusActive},
			{RequestID: "b", Status: domain.StatusPending},
			{RequestID: "c", Status: domain.StatusCompleted},
			{RequestID: "d", Status: domain.StatusRejected},
		},
	}

	view := snap.Transparency()

	ids := make([]string, 0, len(view.Projects))
	for _, p := range view.Projects {
		ids = append(ids, p.RequestID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestPeriod_Contains(t *testing.T) {
	p := domain.MonthPeriod(time.Date(2024, 2, 15, 13, 0, 0, 0, time.UTC))

	assert.True(t, p.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, domain.Period{}.Contains(time.Now()))
}
