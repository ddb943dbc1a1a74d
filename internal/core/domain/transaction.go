package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind indicates whether a ledger entry adds to or takes from the balance.
type TransactionKind string

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

// ParseTransactionKind normalizes a raw kind string. Anything that is not
// recognizably income is treated as an expense so malformed data can never
// inflate the balance.
func ParseTransactionKind(raw string) TransactionKind {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(Income):
		return Income
	default:
		return Expense
	}
}

// IsValid reports whether k is one of the canonical kinds.
func (k TransactionKind) IsValid() bool {
	return k == Income || k == Expense
}

// Transaction is a single ledger entry. Amount and Kind never change once posted.
type Transaction struct {
	TransactionID   string          `json:"transactionID"`             // Primary Key (UUID)
	Amount          decimal.Decimal `json:"amount"`                    // Non-negative magnitude
	Kind            TransactionKind `json:"kind"`                      // INCOME or EXPENSE
	Description     string          `json:"description"`               // Free text
	Date            time.Time       `json:"date"`                      // Calendar date of the entry
	LinkedRequestID *string         `json:"linkedRequestID,omitempty"` // Set when posted by an approval
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// IsLinked reports whether the entry was posted by approving a project request.
func (t Transaction) IsLinked() bool {
	return t.LinkedRequestID != nil && *t.LinkedRequestID != ""
}

// LinkedTo reports whether the entry is the linked expense of requestID.
func (t Transaction) LinkedTo(requestID string) bool {
	return t.IsLinked() && *t.LinkedRequestID == requestID
}
