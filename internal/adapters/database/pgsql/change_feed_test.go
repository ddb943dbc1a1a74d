package pgsql

import (
	"testing"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChangeEvent(t *testing.T) {
	event, err := decodeChangeEvent([]byte(`{"entity":"transactions","op":"INSERT","id":"t-1","at":"2024-03-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EntityTransaction, event.Entity)
	assert.Equal(t, domain.OpInsert, event.Op)
	assert.Equal(t, "t-1", event.ID)
	assert.Equal(t, 2024, event.At.Year())

	event, err = decodeChangeEvent([]byte(`{"entity":"project_requests","op":"UPDATE","id":"r-1"}`))
	require.NoError(t, err)
	assert.False(t, event.At.IsZero(), "missing timestamp defaults to now")

	_, err = decodeChangeEvent([]byte(`{"op":"UPDATE"}`))
	assert.Error(t, err)

	_, err = decodeChangeEvent([]byte(`not json`))
	assert.Error(t, err)
}
