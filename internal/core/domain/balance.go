package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a half-open date range [From, To). A zero Period covers nothing.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if p.IsZero() {
		return false
	}
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

// MonthPeriod returns the calendar month containing t.
func MonthPeriod(t time.Time) Period {
	y, m, _ := t.UTC().Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// YearPeriod returns the calendar year containing t.
func YearPeriod(t time.Time) Period {
	from := time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(1, 0, 0)}
}

// BalanceSummary is the derived view over a set of ledger transactions.
type BalanceSummary struct {
	Balance       decimal.Decimal `json:"balance"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpense  decimal.Decimal `json:"totalExpense"`
	PeriodIncome  decimal.Decimal `json:"periodIncome"`
	PeriodExpense decimal.Decimal `json:"periodExpense"`
	Period        Period          `json:"period"`
	Count         int             `json:"count"`
}

// LedgerReport is a date-filtered snapshot of the ledger for report consumers.
type LedgerReport struct {
	Period       Period         `json:"period"`
	Transactions []Transaction  `json:"transactions"`
	Summary      BalanceSummary `json:"summary"`
	// ClosingBalance is the balance over the whole ledger up to the end of the period.
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}
