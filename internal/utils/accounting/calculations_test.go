package accounting

import (
	"math/rand"
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func txn(amount int64, kind domain.TransactionKind, date time.Time) domain.Transaction {
	return domain.Transaction{
		TransactionID: "t",
		Amount:        decimal.NewFromInt(amount),
		Kind:          kind,
		Date:          date,
	}
}

func TestCompute_EmptyLedger(t *testing.T) {
	summary := Compute(nil, domain.Period{})

	assert.True(t, summary.Balance.IsZero())
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.TotalExpense.IsZero())
	assert.Equal(t, 0, summary.Count)
}

func TestCompute_IncomeMinusExpense(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	summary := Compute([]domain.Transaction{
		txn(1000, domain.Income, day),
		txn(400, domain.Expense, day),
	}, domain.Period{})

	assert.True(t, decimal.NewFromInt(600).Equal(summary.Balance), "got %s", summary.Balance)
	assert.True(t, decimal.NewFromInt(1000).Equal(summary.TotalIncome))
	assert.True(t, decimal.NewFromInt(400).Equal(summary.TotalExpense))
}

func TestCompute_UnknownKindCountsAsExpense(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	summary := Compute([]domain.Transaction{
		txn(100, domain.Income, day),
		txn(30, domain.TransactionKind(""), day),
		txn(20, domain.TransactionKind("GIFT"), day),
	}, domain.Period{})

	assert.True(t, decimal.NewFromInt(50).Equal(summary.Balance), "got %s", summary.Balance)
	assert.True(t, decimal.NewFromInt(50).Equal(summary.TotalExpense))
}

func TestCompute_PeriodAggregates(t *testing.T) {
	march := domain.MonthPeriod(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	summary := Compute([]domain.Transaction{
		txn(500, domain.Income, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
		txn(300, domain.Income, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		txn(120, domain.Expense, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
		txn(80, domain.Expense, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
	}, march)

	assert.True(t, decimal.NewFromInt(600).Equal(summary.Balance))
	assert.True(t, decimal.NewFromInt(300).Equal(summary.PeriodIncome))
	assert.True(t, decimal.NewFromInt(120).Equal(summary.PeriodExpense))
	assert.Equal(t, march, summary.Period)
}

func TestCompute_OrderIndependentAndPure(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		txns := make([]domain.Transaction, n)
		income, expense := decimal.Zero, decimal.Zero
		for i := range txns {
			amount := decimal.New(rng.Int63n(1_000_000), -2)
			kind := domain.Expense
			if rng.Intn(2) == 0 {
				kind = domain.Income
				income = income.Add(amount)
			} else {
				expense = expense.Add(amount)
			}
			txns[i] = domain.Transaction{Amount: amount, Kind: kind, Date: day.AddDate(0, 0, i)}
		}
		original := make([]domain.Transaction, n)
		copy(original, txns)

		first := Compute(txns, domain.Period{})
		assert.Equal(t, original, txns, "Compute must not mutate its input")
		assert.True(t, income.Sub(expense).Equal(first.Balance))

		rng.Shuffle(n, func(i, j int) { txns[i], txns[j] = txns[j], txns[i] })
		second := Compute(txns, domain.Period{})
		assert.True(t, first.Balance.Equal(second.Balance), "balance must not depend on order")
	}
}

func TestSignedAmount(t *testing.T) {
	assert.True(t, decimal.NewFromInt(10).Equal(SignedAmount(txn(10, domain.Income, time.Time{}))))
	assert.True(t, decimal.NewFromInt(-10).Equal(SignedAmount(txn(10, domain.Expense, time.Time{}))))
	assert.True(t, decimal.NewFromInt(-10).Equal(SignedAmount(txn(10, "bogus", time.Time{}))))
}

func TestFilterByPeriod(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	all := []domain.Transaction{txn(1, domain.Income, jan), txn(2, domain.Expense, feb)}

	assert.Len(t, FilterByPeriod(all, domain.Period{}), 2)
	filtered := FilterByPeriod(all, domain.MonthPeriod(feb))
	assert.Len(t, filtered, 1)
	assert.Equal(t, feb, filtered[0].Date)
}
