package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table. Kind is stored as written;
// it is normalized when mapped to the domain.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	Amount          decimal.Decimal `db:"amount"`
	Kind            string          `db:"kind"`
	Description     *string         `db:"description"`
	Date            time.Time       `db:"txn_date"`
	LinkedRequestID *string         `db:"linked_request_id"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
}
