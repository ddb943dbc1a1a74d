package dto

import (
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReportParams defines query parameters for the ledger report.
// To is exclusive. Both default to the current month.
type LedgerReportParams struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// LedgerReportResponse represents the ledger report response
type LedgerReportResponse struct {
	FromDate       string                `json:"fromDate"`
	ToDate         string                `json:"toDate"`
	Transactions   []TransactionResponse `json:"transactions"`
	PeriodIncome   decimal.Decimal       `json:"periodIncome"`
	PeriodExpense  decimal.Decimal       `json:"periodExpense"`
	PeriodNet      decimal.Decimal       `json:"periodNet"`
	ClosingBalance decimal.Decimal       `json:"closingBalance"`
}

// ToLedgerReportResponse converts a domain.LedgerReport to its DTO
func ToLedgerReportResponse(r *domain.LedgerReport) LedgerReportResponse {
	return LedgerReportResponse{
		FromDate:       r.Period.From.Format(DateLayout),
		ToDate:         r.Period.To.Format(DateLayout),
		Transactions:   ToTransactionResponses(r.Transactions),
		PeriodIncome:   r.Summary.PeriodIncome,
		PeriodExpense:  r.Summary.PeriodExpense,
		PeriodNet:      r.Summary.PeriodIncome.Sub(r.Summary.PeriodExpense),
		ClosingBalance: r.ClosingBalance,
	}
}
