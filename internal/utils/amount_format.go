package utils

import (
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of decimal places shown for money amounts.
const AmountPrecision = 2

// FormatAmount renders amount with a fixed two-decimal precision.
// Example: 12.3456 returns "12.35", 1000 returns "1000.00".
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountPrecision)
}

// FormatSignedAmount renders amount with an explicit sign, as shown in ledger exports.
func FormatSignedAmount(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + FormatAmount(amount)
	}
	return FormatAmount(amount)
}
