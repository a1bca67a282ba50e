package deposit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "coursepay/internal/errors"
	"coursepay/internal/repositories"
	"coursepay/internal/services/currency"
	"coursepay/internal/services/wallet"
)

// fakeCharger returns a fixed charge id, or fails when told to.
type fakeCharger struct {
	chargeID string
	err      error
	calls    int
}

func (f *fakeCharger) Charge(ctx context.Context, cardToken string, amount decimal.Decimal, currency, description string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.chargeID != "" {
		return f.chargeID, nil
	}
	return fmt.Sprintf("ch_%d", f.calls), nil
}

func newTestDeposit(t *testing.T, charger Charger) (*Service, wallet.Service, repositories.WalletRepository) {
	t.Helper()
	repo := repositories.NewMemoryRepository()
	walletSvc := wallet.NewService(repo, nil, currency.NewNormalizer(), wallet.Config{}, nil)
	return NewService(walletSvc, charger), walletSvc, repo
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestService_Deposit(t *testing.T) {
	charger := &fakeCharger{}
	svc, walletSvc, _ := newTestDeposit(t, charger)
	ctx := context.Background()

	_, err := walletSvc.CreateAccount(ctx, wallet.CreateAccountInput{OwnerID: 1})
	require.NoError(t, err)

	result, err := svc.Deposit(ctx, Input{
		OwnerID:   1,
		CardToken: "tok_visa",
		Amount:    amt("50.00"),
		Currency:  "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_1", result.ChargeID)
	assert.True(t, result.Account.Balance.Equal(amt("50")))

	entry, err := walletSvc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, entry.Balance.Equal(amt("50")))
}

func TestService_DepositReplaySameCharge(t *testing.T) {
	charger := &fakeCharger{chargeID: "ch_fixed"}
	svc, walletSvc, repo := newTestDeposit(t, charger)
	ctx := context.Background()

	account, err := walletSvc.CreateAccount(ctx, wallet.CreateAccountInput{OwnerID: 1})
	require.NoError(t, err)

	in := Input{OwnerID: 1, CardToken: "tok_visa", Amount: amt("30.00"), Currency: "USD"}

	first, err := svc.Deposit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ch_fixed", first.ChargeID)

	// The provider re-delivering the same charge must not double credit.
	second, err := svc.Deposit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ch_fixed", second.ChargeID)

	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(amt("30")), "got %s", fresh.Balance)

	_, total, err := repo.GetEntries(account.ID, 10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestService_DepositRejectsBeforeCharging(t *testing.T) {
	charger := &fakeCharger{}
	svc, walletSvc, _ := newTestDeposit(t, charger)
	ctx := context.Background()

	account, err := walletSvc.CreateAccount(ctx, wallet.CreateAccountInput{OwnerID: 1})
	require.NoError(t, err)
	_, err = walletSvc.Freeze(ctx, account.ID, "review")
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, Input{OwnerID: 1, CardToken: "tok_visa", Amount: amt("10.00"), Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrAccountFrozen)
	assert.Zero(t, charger.calls, "the card is never charged for a frozen wallet")

	_, err = svc.Deposit(ctx, Input{OwnerID: 1, CardToken: "tok_visa", Amount: amt("-5.00"), Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Deposit(ctx, Input{OwnerID: 99, CardToken: "tok_visa", Amount: amt("10.00"), Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Zero(t, charger.calls)
}

func TestService_DepositChargeFailure(t *testing.T) {
	charger := &fakeCharger{err: errors.New("card declined")}
	svc, walletSvc, repo := newTestDeposit(t, charger)
	ctx := context.Background()

	account, err := walletSvc.CreateAccount(ctx, wallet.CreateAccountInput{OwnerID: 1})
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, Input{OwnerID: 1, CardToken: "tok_visa", Amount: amt("10.00"), Currency: "USD"})
	assert.ErrorContains(t, err, "card declined")

	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.IsZero())
}
