package notes

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"$450.00", "450", true},
		{"$1,434.72", "1434.72", true},
		{"1434.72 USD", "1434.72", true},
		{"-$12", "-12", true},
		{"$-12.00", "-12", true},
		{"USD -1,200", "-1200", true},
		{"($40.00)", "-40", true},
		{"$.50", "0.5", true},
		{"n/a", "0", false},
		{"", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseAmount(tt.raw)
			assert.Equal(t, tt.valid, got.Valid)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Value), "got %s", got.Value)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestSummarize(t *testing.T) {
	parsed := Parse("Subtotal: $1,380.00\nSales Tax (3.965%): $54.72\nTotal: $1,434.72")
	s := Summarize(parsed)

	require.True(t, s.Subtotal.Valid)
	require.True(t, s.Tax.Valid)
	require.True(t, s.Total.Valid)
	assert.True(t, decimal.RequireFromString("1434.72").Equal(s.Computed))
	assert.True(t, s.Balanced)
}

func TestSummarize_Unbalanced(t *testing.T) {
	s := Summarize(Parse("Subtotal: $100\nSales Tax: $4\nTotal: $110"))
	assert.True(t, decimal.NewFromInt(104).Equal(s.Computed))
	assert.False(t, s.Balanced)
}

func TestSummarize_MissingFields(t *testing.T) {
	s := Summarize(Parse("Total: call for pricing"))
	assert.False(t, s.Total.Valid)
	assert.False(t, s.Subtotal.Valid)
	assert.False(t, s.Balanced)
	assert.True(t, s.Computed.IsZero())
}

func TestSummarize_FirstReadableAmountWins(t *testing.T) {
	s := Summarize(Parse("Total: TBD\nTotal: $20\nTotal: $30\nSubtotal: $20"))
	assert.True(t, decimal.NewFromInt(20).Equal(s.Total.Value))
	assert.True(t, s.Balanced)
}
