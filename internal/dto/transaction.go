package dto

import (
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the data needed to post a direct ledger entry.
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"dpositive"`
	Kind        string          `json:"kind" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Date        string          `json:"date" binding:"omitempty,datetime=2006-01-02"` // Defaults to today
	// LinkedRequestID is accepted only so it can be refused; links are created by approval.
	LinkedRequestID *string `json:"linkedRequestID,omitempty"`
}

// ListTransactionsParams defines query parameters for listing ledger entries.
type ListTransactionsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken string `form:"nextToken"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	Amount          decimal.Decimal `json:"amount"`
	Kind            string          `json:"kind"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
	LinkedRequestID *string         `json:"linkedRequestID,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// ListTransactionsResponse wraps a page of ledger entries.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// BalanceResponse defines the data returned for the ledger balance.
type BalanceResponse struct {
	Balance      decimal.Decimal `json:"balance"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Count        int             `json:"count"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   txn.TransactionID,
		Amount:          txn.Amount,
		Kind:            string(txn.Kind),
		Description:     txn.Description,
		Date:            txn.Date.Format(DateLayout),
		LinkedRequestID: txn.LinkedRequestID,
		CreatedAt:       txn.CreatedAt,
		CreatedBy:       txn.CreatedBy,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// ToBalanceResponse converts a domain.BalanceSummary to BalanceResponse DTO
func ToBalanceResponse(s *domain.BalanceSummary) BalanceResponse {
	return BalanceResponse{
		Balance:      s.Balance,
		TotalIncome:  s.TotalIncome,
		TotalExpense: s.TotalExpense,
		Count:        s.Count,
	}
}
