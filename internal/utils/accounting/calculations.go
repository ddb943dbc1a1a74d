package accounting

import (
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount returns the effect of a transaction on the balance:
// positive for income, negative for everything else.
// Kinds other than INCOME (including empty or malformed ones) count as expenses.
func SignedAmount(txn domain.Transaction) decimal.Decimal {
	if txn.Kind == domain.Income {
		return txn.Amount
	}
	return txn.Amount.Neg()
}

// Compute folds a set of transactions into a balance summary in a single pass.
// It never mutates its input and does not depend on element order.
// Transactions dated inside period also count towards the period aggregates.
func Compute(transactions []domain.Transaction, period domain.Period) domain.BalanceSummary {
	income := decimal.Zero
	expense := decimal.Zero
	periodIncome := decimal.Zero
	periodExpense := decimal.Zero

	for _, txn := range transactions {
		inPeriod := period.Contains(txn.Date)
		if txn.Kind == domain.Income {
			income = income.Add(txn.Amount)
			if inPeriod {
				periodIncome = periodIncome.Add(txn.Amount)
			}
			continue
		}
		expense = expense.Add(txn.Amount)
		if inPeriod {
			periodExpense = periodExpense.Add(txn.Amount)
		}
	}

	return domain.BalanceSummary{
		Balance:       income.Sub(expense),
		TotalIncome:   income,
		TotalExpense:  expense,
		PeriodIncome:  periodIncome,
		PeriodExpense: periodExpense,
		Period:        period,
		Count:         len(transactions),
	}
}

// FilterByPeriod returns the transactions dated inside period, preserving order.
// A zero period returns every transaction.
func FilterByPeriod(transactions []domain.Transaction, period domain.Period) []domain.Transaction {
	if period.IsZero() {
		out := make([]domain.Transaction, len(transactions))
		copy(out, transactions)
		return out
	}
	out := make([]domain.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if period.Contains(txn.Date) {
			out = append(out, txn)
		}
	}
	return out
}

// ValidateAmount checks that an amount is a usable non-negative magnitude.
func ValidateAmount(amount decimal.Decimal) bool {
	return !amount.IsNegative()
}
