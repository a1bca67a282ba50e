// Package ledger serves the read side of the transaction history and the
// admin corrections that keep it append-only: entries are never edited,
// mistakes are reversed by compensating entries that reference the
// original.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/repositories"
)

// HistoryPage is one page of ledger entries plus pagination metadata.
type HistoryPage struct {
	Entries     []models.LedgerEntry `json:"entries"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	HasNextPage bool                 `json:"has_next_page"`
}

// Totals reports completed sums per entry type plus the net effect on the
// account balance, all in the account's own currency.
type Totals struct {
	AccountID uint                       `json:"account_id"`
	Currency  string                     `json:"currency"`
	ByType    map[string]decimal.Decimal `json:"by_type"`
	Net       decimal.Decimal            `json:"net"`
}

// HistoryCache caches first-page history reads and drops an account's
// cached state after a correction touches its balance.
type HistoryCache interface {
	GetHistory(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error)
	SetHistory(ctx context.Context, accountID uint, limit int, entries []models.LedgerEntry) error
	InvalidateAccount(ctx context.Context, ownerID, accountID uint) error
}

// Retry policy for the reversal transaction, matching the wallet's.
const (
	retryAttempts = 3
	retryBackoff  = 50 * time.Millisecond
)

// Service exposes ledger queries and corrections.
type Service struct {
	repo  repositories.WalletRepository
	cache HistoryCache
}

// NewService builds the ledger service. Cache is optional.
func NewService(repo repositories.WalletRepository, cache HistoryCache) *Service {
	if repo == nil {
		panic("repo is required")
	}
	return &Service{repo: repo, cache: cache}
}

// History returns a page of an account's entries, newest first. The first
// page of the common sizes is cached; the wallet invalidates it on every
// mutation.
func (s *Service) History(ctx context.Context, accountID uint, page, limit int, status string) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	cacheable := s.cache != nil && status == "" && page == 1 && (limit == 10 || limit == 20)
	if cacheable {
		if entries, err := s.cache.GetHistory(ctx, accountID, limit); err == nil {
			total, err := s.countAll(accountID)
			if err == nil {
				return newHistoryPage(entries, total, page, limit), nil
			}
		}
	}

	entries, total, err := s.repo.GetEntries(accountID, limit, offset, status)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetHistory(ctx, accountID, limit, entries); err != nil {
			log.Printf("ledger: failed to cache history for account %d: %v", accountID, err)
		}
	}
	return newHistoryPage(entries, total, page, limit), nil
}

func (s *Service) countAll(accountID uint) (int64, error) {
	_, total, err := s.repo.GetEntries(accountID, 1, 0, "")
	return total, err
}

func newHistoryPage(entries []models.LedgerEntry, total int64, page, limit int) *HistoryPage {
	return &HistoryPage{
		Entries:     entries,
		Total:       total,
		Page:        page,
		Limit:       limit,
		HasNextPage: int64(page*limit) < total,
	}
}

// FindByExternalRef resolves the entry recorded for a provider correlation
// id, if any.
func (s *Service) FindByExternalRef(ctx context.Context, ref string) (*models.LedgerEntry, error) {
	return s.repo.GetEntryByExternalRef(ref)
}

// AggregateTotals sums settled entries per type. Pending, failed and
// cancelled entries are excluded by the store; reversed entries count
// together with their compensating entries, which net to zero.
func (s *Service) AggregateTotals(ctx context.Context, accountID uint) (*Totals, error) {
	account, err := s.repo.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.AggregateTotals(accountID)
	if err != nil {
		return nil, err
	}

	net := decimal.Zero
	for entryType, sum := range byType {
		if models.IsCreditType(entryType) {
			net = net.Add(sum)
		} else {
			net = net.Sub(sum)
		}
	}
	return &Totals{
		AccountID: accountID,
		Currency:  account.Currency,
		ByType:    byType,
		Net:       net,
	}, nil
}

// Reverse appends a compensating entry for a completed entry and applies
// the opposite delta to the account, inside one exclusive section. The
// original entry only changes status; history is never rewritten.
func (s *Service) Reverse(ctx context.Context, entryID, reason string) (*models.LedgerEntry, error) {
	var reversal *models.LedgerEntry
	var account *models.Account
	err := s.withRetry(ctx, "reverse", func() error {
		return s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
			original, err := tx.GetEntryByID(entryID)
			if err != nil {
				return err
			}
			if original.Status != models.EntryStatusCompleted {
				return fmt.Errorf("%w: entry is %s", domain.ErrEntryNotReversible, original.Status)
			}

			locked, err := tx.GetAccountForUpdate(original.AccountID)
			if err != nil {
				return err
			}
			if !locked.Active {
				return domain.ErrAccountInactive
			}

			before := locked.Balance
			after := before.Sub(original.SignedAmount())
			if after.IsNegative() {
				return domain.ErrInsufficientBalance
			}

			now := time.Now().UTC()
			locked.Balance = after
			locked.LastTransactionAt = &now
			if err := tx.UpdateAccount(locked); err != nil {
				return err
			}

			reversalType := models.EntryTypeDebit
			if !models.IsCreditType(original.Type) {
				reversalType = models.EntryTypeRefund
			}
			reversal = &models.LedgerEntry{
				ID:            uuid.NewString(),
				AccountID:     original.AccountID,
				Type:          reversalType,
				Amount:        original.Amount,
				Currency:      original.Currency,
				BalanceBefore: before,
				BalanceAfter:  after,
				Status:        models.EntryStatusCompleted,
				PurposeTag:    "reversal",
				ParentEntryID: &original.ID,
				Metadata:      models.NewJSON(map[string]interface{}{"reason": reason}),
				CreatedAt:     now,
				ProcessedAt:   &now,
			}
			if err := tx.CreateEntry(reversal); err != nil {
				return err
			}

			original.Status = models.EntryStatusReversed
			if err := tx.UpdateEntry(original); err != nil {
				return err
			}
			account = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, account)
	return reversal, nil
}

func (s *Service) invalidate(ctx context.Context, account *models.Account) {
	if s.cache == nil || account == nil {
		return
	}
	if err := s.cache.InvalidateAccount(ctx, account.OwnerID, account.ID); err != nil {
		log.Printf("ledger: failed to invalidate cache for account %d: %v", account.ID, err)
	}
}

// withRetry re-runs fn on transient storage failures with a growing backoff.
// Domain errors surface verbatim on the first attempt.
func (s *Service) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if attempt > 1 {
			backoff := retryBackoff * time.Duration(1<<(attempt-2))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if _, ok := domain.As(err); ok {
			return err
		}
		log.Printf("ledger: %s attempt %d/%d failed: %v", operation, attempt, retryAttempts, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

// Reconcile recomputes the account balance from settled entries and
// compares it with the stored balance. A mismatch means money was created
// or lost and is fatal; it is logged distinctly and never retried.
func (s *Service) Reconcile(ctx context.Context, accountID uint) error {
	account, err := s.repo.GetAccountByID(accountID)
	if err != nil {
		return err
	}
	byType, err := s.repo.AggregateTotals(accountID)
	if err != nil {
		return err
	}

	computed := decimal.Zero
	for entryType, sum := range byType {
		if models.IsCreditType(entryType) {
			computed = computed.Add(sum)
		} else {
			computed = computed.Sub(sum)
		}
	}

	if !computed.Equal(account.Balance) {
		detail, _ := json.Marshal(map[string]string{
			"account_id": fmt.Sprint(accountID),
			"stored":     account.Balance.String(),
			"computed":   computed.String(),
		})
		log.Printf("CONSISTENCY_ERROR: ledger does not explain balance: %s", detail)
		return fmt.Errorf("%w: stored %s, ledger %s", domain.ErrConsistency, account.Balance, computed)
	}
	return nil
}
