package deposit

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/charge"

	"coursepay/internal/config"
)

// Charger charges an external card and returns the provider's charge id.
// That id becomes the ledger entry's external reference, so provider
// retries collapse into one credit.
type Charger interface {
	Charge(ctx context.Context, cardToken string, amount decimal.Decimal, currency, description string) (string, error)
}

// StripeCharger charges cards through Stripe.
type StripeCharger struct{}

// NewStripeCharger reads the API key from the environment.
func NewStripeCharger() *StripeCharger {
	stripe.Key = config.GetEnv("STRIPE_SECRET_KEY", "")
	return &StripeCharger{}
}

// Charge creates a Stripe charge for the card token. Stripe counts in the
// currency's minor unit.
func (s *StripeCharger) Charge(ctx context.Context, cardToken string, amount decimal.Decimal, currency, description string) (string, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency:    stripe.String(strings.ToLower(currency)),
		Description: stripe.String(description),
	}
	params.Context = ctx
	if err := params.SetSource(cardToken); err != nil {
		return "", fmt.Errorf("invalid card token: %w", err)
	}

	ch, err := charge.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe charge failed: %w", err)
	}
	return ch.ID, nil
}
