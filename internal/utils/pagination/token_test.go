package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	c := Cursor{
		Date:      time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 5, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "6f1c2c1e-0000-4000-8000-000000000001",
	}

	token := EncodeCursor(c)
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "/", "token should be URL safe")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.Date.Equal(decoded.Date))
	assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, c.ID, decoded.ID)
}

func TestDecodeCursorError(t *testing.T) {
	_, err := DecodeCursor("this is not base64!")
	assert.ErrorContains(t, err, "base64 decode")

	_, err = DecodeCursor(EncodeCursor(Cursor{}))
	assert.ErrorContains(t, err, "split", "a cursor without an id is rejected")

	_, err = DecodeCursor(base64.RawURLEncoding.EncodeToString([]byte("notadate|2024-05-15T14:30:45Z|id")))
	assert.ErrorContains(t, err, "date parse")
}

func TestCursorAfter(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ts := day.Add(time.Hour)
	c := Cursor{Date: day, CreatedAt: ts, ID: "m"}

	tests := []struct {
		name      string
		date      time.Time
		createdAt time.Time
		id        string
		want      bool
	}{
		{"earlier date", day.AddDate(0, 0, -1), ts, "z", true},
		{"later date", day.AddDate(0, 0, 1), ts, "a", false},
		{"same date earlier creation", day, ts.Add(-time.Second), "z", true},
		{"same date later creation", day, ts.Add(time.Second), "a", false},
		{"tie broken by id", day, ts, "a", true},
		{"same position", day, ts, "m", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.After(tt.date, tt.createdAt, tt.id))
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit+1))
}
