package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// COERCION TESTS - Legacy payloads hold amounts in several shapes
// =============================================================================

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string", "1000", "1000"},
		{"string with separators", "1,25,000", "125000"},
		{"string with spaces", "  450.50 ", "450.5"},
		{"float", float64(99.99), "99.99"},
		{"int", 42, "42"},
		{"nil", nil, "0"},
		{"empty string", "", "0"},
		{"malformed string", "twelve", "0"},
		{"wrong type", []any{"1"}, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, err := decimal.NewFromString(tc.want)
			assert.NoError(t, err)
			assert.True(t, CoerceAmount(tc.in).Equal(want),
				"got %s want %s", CoerceAmount(tc.in), want)
		})
	}
}

func TestCoerceDirection_DefaultsToCredit(t *testing.T) {
	assert.Equal(t, Debit, CoerceDirection("debit"))
	assert.Equal(t, Debit, CoerceDirection(" DEBIT "))
	assert.Equal(t, Credit, CoerceDirection("credit"))
	assert.Equal(t, Credit, CoerceDirection(""))
	assert.Equal(t, Credit, CoerceDirection(nil))
	assert.Equal(t, Credit, CoerceDirection(7))
}

func TestSignedAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	assert.True(t, SignedAmount(hundred, Credit).Equal(hundred))
	assert.True(t, SignedAmount(hundred, Debit).Equal(hundred.Neg()))
}
