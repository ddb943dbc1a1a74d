package mapping

import (
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/models"
)

// ToModelTransaction converts a domain.Transaction to a models.Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	var linked *string
	if d.IsLinked() {
		id := *d.LinkedRequestID
		linked = &id
	}
	return models.Transaction{
		TransactionID:   d.TransactionID,
		Amount:          d.Amount,
		Kind:            string(d.Kind),
		Description:     optionalString(d.Description),
		Date:            domain.DateOnly(d.Date),
		LinkedRequestID: linked,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
	}
}

// ToDomainTransaction converts a models.Transaction to a domain.Transaction.
// Unrecognized kinds become expenses; negative stored amounts keep their magnitude.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		Amount:          m.Amount.Abs(),
		Kind:            domain.ParseTransactionKind(m.Kind),
		Description:     derefString(m.Description),
		Date:            m.Date,
		LinkedRequestID: m.LinkedRequestID,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

// ToDomainTransactionSlice converts a slice of models.Transaction
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		out[i] = ToDomainTransaction(m)
	}
	return out
}
