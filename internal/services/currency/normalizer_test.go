package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "coursepay/internal/errors"
)

func TestNormalizer_RoundTrip(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name     string
		amount   string
		currency string
	}{
		{"usd identity", "100.00", "USD"},
		{"euro", "49.99", "EUR"},
		{"weak currency survives the round trip", "37.50", "EGP"},
		{"naira", "1500.00", "NGN"},
		{"single cent", "0.01", "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)

			usd, err := n.ToCanonical(amount, tt.currency)
			require.NoError(t, err)

			back, err := n.FromCanonical(usd, tt.currency)
			require.NoError(t, err)
			assert.True(t, back.Equal(amount), "got %s, want %s", back, amount)
		})
	}
}

func TestNormalizer_ToCanonical(t *testing.T) {
	n := NewNormalizer()

	usd, err := n.ToCanonical(decimal.RequireFromString("100.00"), "EUR")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.RequireFromString("108")), "got %s", usd)

	// Case insensitive lookup.
	lower, err := n.ToCanonical(decimal.RequireFromString("100.00"), "eur")
	require.NoError(t, err)
	assert.True(t, lower.Equal(usd))
}

func TestNormalizer_UnsupportedCurrency(t *testing.T) {
	n := NewNormalizer()

	_, err := n.ToCanonical(decimal.RequireFromString("10"), "XYZ")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	_, err = n.FromCanonical(decimal.RequireFromString("10"), "XYZ")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	assert.False(t, n.Supported("XYZ"))
	assert.True(t, n.Supported("usd"))
}

func TestNormalizer_Refresh(t *testing.T) {
	n := NewNormalizerWithRates(map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
	})
	assert.False(t, n.Supported("EUR"))

	n.Refresh(map[string]decimal.Decimal{
		"usd": decimal.NewFromInt(1),
		"eur": decimal.RequireFromString("1.10"),
	})
	assert.True(t, n.Supported("EUR"))

	usd, err := n.ToCanonical(decimal.RequireFromString("10.00"), "EUR")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.RequireFromString("11")), "got %s", usd)
}
