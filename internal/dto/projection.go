package dto

import (
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DashboardResponse is the admin dashboard view of a projection snapshot.
type DashboardResponse struct {
	Sequence       uint64                   `json:"sequence"`
	Balance        decimal.Decimal          `json:"balance"`
	TotalIncome    decimal.Decimal          `json:"totalIncome"`
	TotalExpense   decimal.Decimal          `json:"totalExpense"`
	PeriodIncome   decimal.Decimal          `json:"periodIncome"`
	PeriodExpense  decimal.Decimal          `json:"periodExpense"`
	PeriodFrom     *string                  `json:"periodFrom,omitempty"`
	PeriodTo       *string                  `json:"periodTo,omitempty"`
	PendingCount   int                      `json:"pendingCount"`
	ActiveProjects []ProjectRequestResponse `json:"activeProjects"`
	GeneratedAt    time.Time                `json:"generatedAt"`
}

// PublicProject is the reduced request shape shown on the transparency page.
type PublicProject struct {
	Title         string          `json:"title"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
	Status        string          `json:"status"`
	Date          string          `json:"date"`
}

// TransparencyResponse is the unauthenticated public view.
type TransparencyResponse struct {
	Balance     decimal.Decimal `json:"balance"`
	Projects    []PublicProject `json:"projects"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// ToDashboardResponse converts a domain.Snapshot to the dashboard DTO
func ToDashboardResponse(s domain.Snapshot) DashboardResponse {
	out := DashboardResponse{
		Sequence:       s.Sequence,
		Balance:        s.Balance.Balance,
		TotalIncome:    s.Balance.TotalIncome,
		TotalExpense:   s.Balance.TotalExpense,
		PeriodIncome:   s.Balance.PeriodIncome,
		PeriodExpense:  s.Balance.PeriodExpense,
		PendingCount:   s.PendingCount,
		ActiveProjects: ToProjectRequestResponses(s.ActiveProjects),
		GeneratedAt:    s.GeneratedAt,
	}
	if !s.Balance.Period.IsZero() {
		from := s.Balance.Period.From.Format(DateLayout)
		to := s.Balance.Period.To.Format(DateLayout)
		out.PeriodFrom, out.PeriodTo = &from, &to
	}
	return out
}

// ToTransparencyResponse converts a domain.TransparencyView to its DTO
func ToTransparencyResponse(v domain.TransparencyView) TransparencyResponse {
	projects := make([]PublicProject, len(v.Projects))
	for i, p := range v.Projects {
		projects[i] = PublicProject{
			Title:         p.Title,
			EstimatedCost: p.EstimatedCost,
			Status:        string(p.Status),
			Date:          p.Date.Format(DateLayout),
		}
	}
	return TransparencyResponse{Balance: v.Balance, Projects: projects, GeneratedAt: v.GeneratedAt}
}
