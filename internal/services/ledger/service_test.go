package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/repositories"
	"coursepay/internal/services/currency"
	"coursepay/internal/services/wallet"
)

func newTestLedger(t *testing.T) (*Service, wallet.Service, repositories.WalletRepository) {
	t.Helper()
	repo := repositories.NewMemoryRepository()
	walletSvc := wallet.NewService(repo, nil, currency.NewNormalizer(), wallet.Config{}, nil)
	return NewService(repo, nil), walletSvc, repo
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedAccount(t *testing.T, walletSvc wallet.Service, ownerID uint, credits ...string) *models.Account {
	t.Helper()
	account, err := walletSvc.CreateAccount(context.Background(), wallet.CreateAccountInput{OwnerID: ownerID})
	require.NoError(t, err)
	for i, amount := range credits {
		_, err := walletSvc.Credit(context.Background(), wallet.OperationInput{
			OwnerID:     ownerID,
			Amount:      amt(amount),
			Currency:    "USD",
			ExternalRef: fmt.Sprintf("seed-%d-%d", ownerID, i),
		})
		require.NoError(t, err)
	}
	return account
}

func TestService_History(t *testing.T) {
	svc, walletSvc, _ := newTestLedger(t)
	ctx := context.Background()

	credits := make([]string, 25)
	for i := range credits {
		credits[i] = "1.00"
	}
	account := seedAccount(t, walletSvc, 1, credits...)

	page, err := svc.History(ctx, account.ID, 1, 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Entries, 10)
	assert.Equal(t, int64(25), page.Total)
	assert.True(t, page.HasNextPage)

	last, err := svc.History(ctx, account.ID, 3, 10, "")
	require.NoError(t, err)
	assert.Len(t, last.Entries, 5)
	assert.False(t, last.HasNextPage)

	t.Run("newest first", func(t *testing.T) {
		for i := 1; i < len(page.Entries); i++ {
			assert.False(t, page.Entries[i-1].CreatedAt.Before(page.Entries[i].CreatedAt))
		}
	})

	t.Run("status filter", func(t *testing.T) {
		filtered, err := svc.History(ctx, account.ID, 1, 10, models.EntryStatusPending)
		require.NoError(t, err)
		assert.Empty(t, filtered.Entries)
		assert.Equal(t, int64(0), filtered.Total)
	})

	t.Run("bounds are clamped", func(t *testing.T) {
		clamped, err := svc.History(ctx, account.ID, 0, 1000, "")
		require.NoError(t, err)
		assert.Equal(t, 1, clamped.Page)
		assert.Equal(t, 10, clamped.Limit)
	})
}

func TestService_FindByExternalRef(t *testing.T) {
	svc, walletSvc, _ := newTestLedger(t)
	ctx := context.Background()
	seedAccount(t, walletSvc, 1, "10.00")

	entry, err := svc.FindByExternalRef(ctx, "seed-1-0")
	require.NoError(t, err)
	assert.Equal(t, models.EntryTypeCredit, entry.Type)
	assert.True(t, entry.Amount.Equal(amt("10")))

	_, err = svc.FindByExternalRef(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestService_AggregateTotals(t *testing.T) {
	svc, walletSvc, _ := newTestLedger(t)
	ctx := context.Background()
	account := seedAccount(t, walletSvc, 1, "100.00", "50.00")

	_, err := walletSvc.Debit(ctx, wallet.OperationInput{
		OwnerID:  1,
		Amount:   amt("30.00"),
		Currency: "USD",
	})
	require.NoError(t, err)

	totals, err := svc.AggregateTotals(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", totals.Currency)
	assert.True(t, totals.ByType[models.EntryTypeCredit].Equal(amt("150")))
	assert.True(t, totals.ByType[models.EntryTypeDebit].Equal(amt("30")))
	assert.True(t, totals.Net.Equal(amt("120")), "got %s", totals.Net)
}

func TestService_Reverse(t *testing.T) {
	svc, walletSvc, repo := newTestLedger(t)
	ctx := context.Background()
	account := seedAccount(t, walletSvc, 1, "100.00")

	original, err := svc.FindByExternalRef(ctx, "seed-1-0")
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, original.ID, "accidental double charge")
	require.NoError(t, err)

	assert.Equal(t, models.EntryTypeDebit, reversal.Type, "a credit reverses as a debit")
	assert.True(t, reversal.Amount.Equal(original.Amount))
	require.NotNil(t, reversal.ParentEntryID)
	assert.Equal(t, original.ID, *reversal.ParentEntryID)
	assert.True(t, reversal.BalanceAfter.Equal(amt("0")))

	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.IsZero())

	flagged, err := repo.GetEntryByID(original.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusReversed, flagged.Status)

	t.Run("reversed entries cannot reverse again", func(t *testing.T) {
		_, err := svc.Reverse(ctx, original.ID, "twice")
		assert.ErrorIs(t, err, domain.ErrEntryNotReversible)
	})

	t.Run("reversal cannot overdraw", func(t *testing.T) {
		account2 := seedAccount(t, walletSvc, 2, "40.00")
		entry, err := svc.FindByExternalRef(ctx, "seed-2-0")
		require.NoError(t, err)

		_, err = walletSvc.Debit(ctx, wallet.OperationInput{
			OwnerID:  2,
			Amount:   amt("20.00"),
			Currency: "USD",
		})
		require.NoError(t, err)

		_, err = svc.Reverse(ctx, entry.ID, "late dispute")
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		fresh, err := repo.GetAccountByID(account2.ID)
		require.NoError(t, err)
		assert.True(t, fresh.Balance.Equal(amt("20")), "failed reversal leaves the balance alone")
	})
}

func TestService_ReverseDebit(t *testing.T) {
	svc, walletSvc, repo := newTestLedger(t)
	ctx := context.Background()
	account := seedAccount(t, walletSvc, 1, "100.00")

	_, err := walletSvc.Debit(ctx, wallet.OperationInput{
		OwnerID:     1,
		Amount:      amt("60.00"),
		Currency:    "USD",
		ExternalRef: "debit-1",
	})
	require.NoError(t, err)

	debit, err := svc.FindByExternalRef(ctx, "debit-1")
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, debit.ID, "course refund")
	require.NoError(t, err)
	assert.Equal(t, models.EntryTypeRefund, reversal.Type, "a debit reverses as a refund")

	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(amt("100")), "got %s", fresh.Balance)
}

func TestService_TotalsAndReconcileAfterReverse(t *testing.T) {
	svc, walletSvc, repo := newTestLedger(t)
	ctx := context.Background()
	account := seedAccount(t, walletSvc, 1, "100.00")

	original, err := svc.FindByExternalRef(ctx, "seed-1-0")
	require.NoError(t, err)
	_, err = svc.Reverse(ctx, original.ID, "accidental charge")
	require.NoError(t, err)

	// The reversed original still counts; its compensating entry cancels it.
	totals, err := svc.AggregateTotals(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, totals.ByType[models.EntryTypeCredit].Equal(amt("100")), "got %s", totals.ByType[models.EntryTypeCredit])
	assert.True(t, totals.ByType[models.EntryTypeDebit].Equal(amt("100")), "got %s", totals.ByType[models.EntryTypeDebit])
	assert.True(t, totals.Net.IsZero(), "got %s", totals.Net)

	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.IsZero())

	assert.NoError(t, svc.Reconcile(ctx, account.ID), "a reversal must not read as divergence")
}

// flakyRepo fails the first transactions with a transient error, then
// delegates.
type flakyRepo struct {
	repositories.WalletRepository
	failures int
}

func (f *flakyRepo) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.WalletRepository.ExecuteInTransaction(fn)
}

func TestService_ReverseRetriesTransientFailures(t *testing.T) {
	repo := repositories.NewMemoryRepository()
	walletSvc := wallet.NewService(repo, nil, currency.NewNormalizer(), wallet.Config{}, nil)
	account := seedAccount(t, walletSvc, 1, "100.00")
	ctx := context.Background()

	base := NewService(repo, nil)
	original, err := base.FindByExternalRef(ctx, "seed-1-0")
	require.NoError(t, err)

	t.Run("transient failure is retried", func(t *testing.T) {
		svc := NewService(&flakyRepo{WalletRepository: repo, failures: 1}, nil)
		_, err := svc.Reverse(ctx, original.ID, "late dispute")
		require.NoError(t, err)

		fresh, err := repo.GetAccountByID(account.ID)
		require.NoError(t, err)
		assert.True(t, fresh.Balance.IsZero())
	})

	t.Run("exhaustion surfaces as unavailable", func(t *testing.T) {
		account2 := seedAccount(t, walletSvc, 2, "50.00")
		entry, err := base.FindByExternalRef(ctx, "seed-2-0")
		require.NoError(t, err)

		svc := NewService(&flakyRepo{WalletRepository: repo, failures: 10}, nil)
		_, err = svc.Reverse(ctx, entry.ID, "late dispute")
		assert.ErrorIs(t, err, domain.ErrUnavailable)

		fresh, err := repo.GetAccountByID(account2.ID)
		require.NoError(t, err)
		assert.True(t, fresh.Balance.Equal(amt("50")))
	})
}

// recordingCache tracks invalidations; history reads always miss.
type recordingCache struct {
	invalidated []uint
}

func (r *recordingCache) GetHistory(context.Context, uint, int) ([]models.LedgerEntry, error) {
	return nil, errors.New("miss")
}

func (r *recordingCache) SetHistory(context.Context, uint, int, []models.LedgerEntry) error {
	return nil
}

func (r *recordingCache) InvalidateAccount(_ context.Context, _, accountID uint) error {
	r.invalidated = append(r.invalidated, accountID)
	return nil
}

func TestService_ReverseInvalidatesCache(t *testing.T) {
	repo := repositories.NewMemoryRepository()
	walletSvc := wallet.NewService(repo, nil, currency.NewNormalizer(), wallet.Config{}, nil)
	account := seedAccount(t, walletSvc, 1, "100.00")
	ctx := context.Background()

	cache := &recordingCache{}
	svc := NewService(repo, cache)

	original, err := svc.FindByExternalRef(ctx, "seed-1-0")
	require.NoError(t, err)
	_, err = svc.Reverse(ctx, original.ID, "accidental charge")
	require.NoError(t, err)

	assert.Contains(t, cache.invalidated, account.ID, "stale balance must not be served after a reversal")

	t.Run("failed reversal does not invalidate", func(t *testing.T) {
		before := len(cache.invalidated)
		_, err := svc.Reverse(ctx, original.ID, "twice")
		assert.ErrorIs(t, err, domain.ErrEntryNotReversible)
		assert.Len(t, cache.invalidated, before)
	})
}

func TestService_Reconcile(t *testing.T) {
	svc, walletSvc, repo := newTestLedger(t)
	ctx := context.Background()
	account := seedAccount(t, walletSvc, 1, "100.00", "25.00")

	require.NoError(t, svc.Reconcile(ctx, account.ID))

	// Corrupt the stored balance behind the ledger's back.
	fresh, err := repo.GetAccountByID(account.ID)
	require.NoError(t, err)
	fresh.Balance = amt("999.00")
	require.NoError(t, repo.UpdateAccount(fresh))

	err = svc.Reconcile(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrConsistency)
}
