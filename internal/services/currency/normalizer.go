// Package currency converts monetary amounts between the currencies the
// platform sells in and the USD canonical unit used for cross-account
// comparison and aggregation.
package currency

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
)

// CanonicalCurrency is the unit every amount normalizes to internally.
const CanonicalCurrency = "USD"

// canonicalPrecision keeps intermediate USD values precise enough that a
// to-and-from round trip lands within one cent even for weak currencies.
// Stored and returned amounts are always rounded to 2 digits.
const canonicalPrecision = 8

// Normalizer holds a snapshot of conversion rates (currency -> USD
// multiplier). The snapshot is read-only shared state; Refresh swaps it
// wholesale so in-flight conversions keep a consistent view.
type Normalizer struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewNormalizer builds a normalizer seeded with the static default rates.
func NewNormalizer() *Normalizer {
	return &Normalizer{rates: defaultRates()}
}

// NewNormalizerWithRates builds a normalizer with an explicit rate table.
func NewNormalizerWithRates(rates map[string]decimal.Decimal) *Normalizer {
	table := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		table[strings.ToUpper(code)] = rate
	}
	return &Normalizer{rates: table}
}

// Refresh replaces the rate snapshot. Refreshing happens out of band and
// needs no coordination with in-flight wallet operations.
func (n *Normalizer) Refresh(rates map[string]decimal.Decimal) {
	table := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		table[strings.ToUpper(code)] = rate
	}
	n.mu.Lock()
	n.rates = table
	n.mu.Unlock()
}

// Supported reports whether a conversion rate exists for the currency.
func (n *Normalizer) Supported(code string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.rates[strings.ToUpper(code)]
	return ok
}

func (n *Normalizer) rate(code string) (decimal.Decimal, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rate, ok := n.rates[strings.ToUpper(code)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, code)
	}
	return rate, nil
}

// ToCanonical converts an amount in the given currency to USD. The result
// keeps extra precision because it is an intermediate value, never stored.
func (n *Normalizer) ToCanonical(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := n.rate(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate).Round(canonicalPrecision), nil
}

// FromCanonical converts a USD amount into the given currency, rounded
// half-up to 2 decimal places at the point of conversion.
func (n *Normalizer) FromCanonical(usd decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := n.rate(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return usd.Div(rate).Round(2), nil
}
