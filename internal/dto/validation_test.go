package dto

import (
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCreateTransactionRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateTransactionRequest
		wantErr bool
	}{
		{"valid income", CreateTransactionRequest{Amount: decimal.NewFromInt(1000), Kind: "INCOME"}, false},
		{"valid with date", CreateTransactionRequest{Amount: decimal.RequireFromString("0.01"), Kind: "EXPENSE", Date: "2024-02-29"}, false},
		{"zero amount", CreateTransactionRequest{Amount: decimal.Zero, Kind: "INCOME"}, true},
		{"negative amount", CreateTransactionRequest{Amount: decimal.NewFromInt(-5), Kind: "INCOME"}, true},
		{"missing kind", CreateTransactionRequest{Amount: decimal.NewFromInt(5)}, true},
		{"bad date", CreateTransactionRequest{Amount: decimal.NewFromInt(5), Kind: "INCOME", Date: "29/02/2024"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCreateProjectRequest(t *testing.T) {
	assert.NoError(t, Validate(CreateProjectRequest{Title: "Roof repair", EstimatedCost: decimal.NewFromInt(300)}))
	assert.ErrorIs(t, Validate(CreateProjectRequest{EstimatedCost: decimal.NewFromInt(300)}), apperrors.ErrValidation)
	assert.ErrorIs(t, Validate(CreateProjectRequest{Title: "x", EstimatedCost: decimal.NewFromInt(-1)}), apperrors.ErrValidation)
}

func TestParseDate(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseDate("", def)
	assert.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = ParseDate("2024-03-15", def)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("15.03.2024", def)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
