package wallet

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/repositories"
)

type service struct {
	repo      repositories.WalletRepository
	cache     CacheOperator
	converter Converter
	config    Config
	metrics   MetricsCollector
}

// NewService creates a new wallet service.
func NewService(
	repo repositories.WalletRepository,
	cache CacheOperator,
	converter Converter,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if converter == nil {
		panic("converter is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = DefaultRetryAttempts
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}

	// Cache and metrics are optional.
	if cache == nil {
		cache = &noopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:      repo,
		cache:     cache,
		converter: converter,
		config:    config,
		metrics:   metrics,
	}
}

func (s *service) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	currency := in.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if !s.converter.Supported(currency) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, currency)
	}

	account := &models.Account{
		OwnerID:  in.OwnerID,
		TenantID: in.TenantID,
		Currency: currency,
		Active:   true,
	}
	if err := s.repo.CreateAccount(account); err != nil {
		s.metrics.RecordError("create_account", domain.CodeOf(err))
		return nil, err
	}

	if err := s.cache.SetAccount(ctx, account); err != nil {
		log.Printf("wallet: failed to cache account %d: %v", account.ID, err)
	}
	s.metrics.RecordOperation("create_account", "ok")
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, ownerID uint) (*models.Account, error) {
	if account, err := s.cache.GetAccount(ctx, ownerID); err == nil {
		return account, nil
	}

	account, err := s.repo.GetAccountByOwnerID(ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetAccount(ctx, account); err != nil {
		log.Printf("wallet: failed to cache account %d: %v", account.ID, err)
	}
	return account, nil
}

func (s *service) GetBalance(ctx context.Context, ownerID uint) (*BalanceSnapshot, error) {
	account, err := s.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &BalanceSnapshot{
		AccountID: account.ID,
		Balance:   account.Balance,
		Currency:  account.Currency,
		Frozen:    account.Frozen,
		Active:    account.Active,
	}, nil
}

func (s *service) Credit(ctx context.Context, in OperationInput) (*models.Account, error) {
	return s.apply(ctx, in, true)
}

func (s *service) Debit(ctx context.Context, in OperationInput) (*models.Account, error) {
	return s.apply(ctx, in, false)
}

// apply runs one balance mutation. Validation that needs no storage happens
// up front; the flag and balance checks happen again inside the exclusive
// section, against the locked row, so a concurrent mutation between resolve
// and apply cannot slip through.
func (s *service) apply(ctx context.Context, in OperationInput, credit bool) (*models.Account, error) {
	operation := models.EntryTypeDebit
	if credit {
		operation = models.EntryTypeCredit
	}

	entryType, err := resolveEntryType(in.EntryType, credit)
	if err != nil {
		s.metrics.RecordError(operation, domain.CodeOf(err))
		return nil, err
	}
	if err := validateAmount(in.Amount); err != nil {
		s.metrics.RecordError(operation, domain.CodeOf(err))
		return nil, err
	}

	canonical, err := s.converter.ToCanonical(in.Amount, in.Currency)
	if err != nil {
		s.metrics.RecordError(operation, domain.CodeOf(err))
		return nil, err
	}

	account, err := s.repo.GetAccountByOwnerID(in.OwnerID)
	if err != nil {
		return nil, err
	}

	// Balance is kept in the account's own currency; the canonical unit
	// exists only to cross currencies.
	converted, err := s.converter.FromCanonical(canonical, account.Currency)
	if err != nil {
		return nil, err
	}
	if !converted.IsPositive() {
		return nil, fmt.Errorf("%w: amount rounds to zero in %s", domain.ErrInvalidAmount, account.Currency)
	}

	var updated *models.Account
	err = s.withRetry(ctx, operation, func() error {
		return s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
			locked, err := tx.GetAccountForUpdate(account.ID)
			if err != nil {
				return err
			}
			if !locked.Active {
				return domain.ErrAccountInactive
			}
			if locked.Frozen {
				return domain.ErrAccountFrozen
			}

			before := locked.Balance
			delta := converted
			if !credit {
				delta = delta.Neg()
			}
			after := before.Add(delta)
			if after.IsNegative() {
				return domain.ErrInsufficientBalance
			}

			now := time.Now().UTC()
			locked.Balance = after
			locked.LastTransactionAt = &now
			if err := tx.UpdateAccount(locked); err != nil {
				return err
			}

			entry := &models.LedgerEntry{
				ID:            uuid.NewString(),
				AccountID:     locked.ID,
				Type:          entryType,
				Amount:        converted,
				Currency:      locked.Currency,
				BalanceBefore: before,
				BalanceAfter:  after,
				Status:        models.EntryStatusCompleted,
				PurposeTag:    in.PurposeTag,
				ExternalRef:   optionalRef(in.ExternalRef),
				Metadata:      models.NewJSON(in.Metadata),
				CreatedAt:     now,
				ProcessedAt:   &now,
			}
			if err := tx.CreateEntry(entry); err != nil {
				return err
			}

			s.metrics.RecordBalanceChange(locked.ID, before, after)
			updated = locked
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordError(operation, domain.CodeOf(err))
		return nil, err
	}

	s.invalidate(ctx, updated)
	s.metrics.RecordOperation(operation, "ok")
	s.metrics.RecordTransaction(entryType, converted)
	return updated, nil
}

// Transfer debits one owner and credits another inside a single exclusive
// section. Rows are locked in ascending account-id order so two opposing
// transfers cannot deadlock.
func (s *service) Transfer(ctx context.Context, in TransferInput) error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if in.FromOwnerID == in.ToOwnerID {
		return fmt.Errorf("%w: cannot transfer to self", domain.ErrInvalidAmount)
	}

	canonical, err := s.converter.ToCanonical(in.Amount, in.Currency)
	if err != nil {
		return err
	}

	source, err := s.repo.GetAccountByOwnerID(in.FromOwnerID)
	if err != nil {
		return fmt.Errorf("source account: %w", err)
	}
	dest, err := s.repo.GetAccountByOwnerID(in.ToOwnerID)
	if err != nil {
		return fmt.Errorf("destination account: %w", err)
	}

	sourceDelta, err := s.converter.FromCanonical(canonical, source.Currency)
	if err != nil {
		return err
	}
	destDelta, err := s.converter.FromCanonical(canonical, dest.Currency)
	if err != nil {
		return err
	}
	if !sourceDelta.IsPositive() || !destDelta.IsPositive() {
		return fmt.Errorf("%w: amount rounds to zero", domain.ErrInvalidAmount)
	}

	transferID := uuid.NewString()
	err = s.withRetry(ctx, "transfer", func() error {
		return s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
			first, second := source.ID, dest.ID
			if first > second {
				first, second = second, first
			}
			lockedFirst, err := tx.GetAccountForUpdate(first)
			if err != nil {
				return err
			}
			lockedSecond, err := tx.GetAccountForUpdate(second)
			if err != nil {
				return err
			}
			src, dst := lockedFirst, lockedSecond
			if src.ID != source.ID {
				src, dst = lockedSecond, lockedFirst
			}

			for _, account := range []*models.Account{src, dst} {
				if !account.Active {
					return domain.ErrAccountInactive
				}
				if account.Frozen {
					return domain.ErrAccountFrozen
				}
			}
			if src.Balance.LessThan(sourceDelta) {
				return domain.ErrInsufficientBalance
			}

			now := time.Now().UTC()
			srcBefore, dstBefore := src.Balance, dst.Balance
			src.Balance = srcBefore.Sub(sourceDelta)
			dst.Balance = dstBefore.Add(destDelta)
			src.LastTransactionAt = &now
			dst.LastTransactionAt = &now
			if err := tx.UpdateAccount(src); err != nil {
				return err
			}
			if err := tx.UpdateAccount(dst); err != nil {
				return err
			}

			meta := models.NewJSON(map[string]interface{}{"transfer_id": transferID})
			out := &models.LedgerEntry{
				ID:            uuid.NewString(),
				AccountID:     src.ID,
				Type:          models.EntryTypeTransferOut,
				Amount:        sourceDelta,
				Currency:      src.Currency,
				BalanceBefore: srcBefore,
				BalanceAfter:  src.Balance,
				Status:        models.EntryStatusCompleted,
				PurposeTag:    in.PurposeTag,
				Metadata:      meta,
				CreatedAt:     now,
				ProcessedAt:   &now,
			}
			if err := tx.CreateEntry(out); err != nil {
				return err
			}
			entryIn := &models.LedgerEntry{
				ID:            uuid.NewString(),
				AccountID:     dst.ID,
				Type:          models.EntryTypeTransferIn,
				Amount:        destDelta,
				Currency:      dst.Currency,
				BalanceBefore: dstBefore,
				BalanceAfter:  dst.Balance,
				Status:        models.EntryStatusCompleted,
				PurposeTag:    in.PurposeTag,
				ParentEntryID: &out.ID,
				Metadata:      meta,
				CreatedAt:     now,
				ProcessedAt:   &now,
			}
			return tx.CreateEntry(entryIn)
		})
	})
	if err != nil {
		s.metrics.RecordError("transfer", domain.CodeOf(err))
		return err
	}

	s.invalidate(ctx, source)
	s.invalidate(ctx, dest)
	s.metrics.RecordOperation("transfer", "ok")
	s.metrics.RecordTransaction(models.EntryTypeTransferOut, sourceDelta)
	return nil
}

func (s *service) Freeze(ctx context.Context, accountID uint, reason string) (*models.Account, error) {
	return s.setFlags(ctx, accountID, "freeze", func(account *models.Account) bool {
		if account.Frozen {
			return false
		}
		account.Frozen = true
		account.StatusReason = reason
		return true
	})
}

func (s *service) Unfreeze(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.setFlags(ctx, accountID, "unfreeze", func(account *models.Account) bool {
		if !account.Frozen {
			return false
		}
		account.Frozen = false
		account.StatusReason = ""
		return true
	})
}

func (s *service) Deactivate(ctx context.Context, accountID uint, reason string) (*models.Account, error) {
	return s.setFlags(ctx, accountID, "deactivate", func(account *models.Account) bool {
		if !account.Active {
			return false
		}
		account.Active = false
		account.StatusReason = reason
		return true
	})
}

func (s *service) Reactivate(ctx context.Context, accountID uint) (*models.Account, error) {
	return s.setFlags(ctx, accountID, "reactivate", func(account *models.Account) bool {
		if account.Active {
			return false
		}
		account.Active = true
		account.StatusReason = ""
		return true
	})
}

// setFlags flips account flags inside the same exclusive section mutations
// use, so a freeze serializes against in-flight credits and debits. The
// flips are idempotent: reaching the target state is success.
func (s *service) setFlags(ctx context.Context, accountID uint, operation string, mutate func(*models.Account) bool) (*models.Account, error) {
	var updated *models.Account
	err := s.withRetry(ctx, operation, func() error {
		return s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
			locked, err := tx.GetAccountForUpdate(accountID)
			if err != nil {
				return err
			}
			if mutate(locked) {
				if err := tx.UpdateAccount(locked); err != nil {
					return err
				}
			}
			updated = locked
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordError(operation, domain.CodeOf(err))
		return nil, err
	}

	s.invalidate(ctx, updated)
	s.metrics.RecordOperation(operation, "ok")
	return updated, nil
}

// withRetry re-runs fn on transient storage failures with a growing backoff.
// Domain errors are deterministic given current state and surface verbatim
// on the first attempt.
func (s *service) withRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.config.RetryAttempts; attempt++ {
		if attempt > 1 {
			backoff := s.config.RetryBackoff * time.Duration(1<<(attempt-2))
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
		log.Printf("wallet: %s attempt %d/%d failed: %v", operation, attempt, s.config.RetryAttempts, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func (s *service) invalidate(ctx context.Context, account *models.Account) {
	if account == nil {
		return
	}
	if err := s.cache.InvalidateAccount(ctx, account.OwnerID, account.ID); err != nil {
		log.Printf("wallet: failed to invalidate cache for account %d: %v", account.ID, err)
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: more than 2 decimal places", domain.ErrInvalidAmount)
	}
	return nil
}

func resolveEntryType(entryType string, credit bool) (string, error) {
	if entryType == "" {
		if credit {
			return models.EntryTypeCredit, nil
		}
		return models.EntryTypeDebit, nil
	}
	if models.IsCreditType(entryType) != credit {
		return "", fmt.Errorf("%w: entry type %q does not match operation", domain.ErrInvalidAmount, entryType)
	}
	return entryType, nil
}

func optionalRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}

type noopCache struct{}

func (n *noopCache) GetAccount(context.Context, uint) (*models.Account, error) {
	return nil, fmt.Errorf("cache disabled")
}
func (n *noopCache) SetAccount(context.Context, *models.Account) error      { return nil }
func (n *noopCache) InvalidateAccount(context.Context, uint, uint) error    { return nil }
