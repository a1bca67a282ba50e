package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"coursepay/internal/models"
)

// Config holds configuration for wallet operations.
type Config struct {
	DefaultCurrency string
	RetryAttempts   int
	RetryBackoff    time.Duration
}

// CreateAccountInput captures data required to provision an account.
type CreateAccountInput struct {
	OwnerID  uint
	TenantID *uint
	Currency string
}

// OperationInput is one credit or debit request. Amount is denominated in
// Currency, which need not match the account currency. EntryType defaults
// to credit/debit and may name a more specific event (deposit, withdrawal,
// refund) on the same side.
type OperationInput struct {
	OwnerID     uint
	Amount      decimal.Decimal
	Currency    string
	PurposeTag  string
	ExternalRef string
	EntryType   string
	Metadata    map[string]interface{}
}

// TransferInput moves funds between two owners' accounts.
type TransferInput struct {
	FromOwnerID uint
	ToOwnerID   uint
	Amount      decimal.Decimal
	Currency    string
	PurposeTag  string
}

// BalanceSnapshot is the read-only view returned by GetBalance.
type BalanceSnapshot struct {
	AccountID uint            `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Frozen    bool            `json:"frozen"`
	Active    bool            `json:"active"`
}

// Converter normalizes amounts through the USD canonical unit.
type Converter interface {
	ToCanonical(amount decimal.Decimal, code string) (decimal.Decimal, error)
	FromCanonical(usd decimal.Decimal, code string) (decimal.Decimal, error)
	Supported(code string) bool
}

// CacheOperator is the subset of caching the wallet needs.
type CacheOperator interface {
	GetAccount(ctx context.Context, ownerID uint) (*models.Account, error)
	SetAccount(ctx context.Context, account *models.Account) error
	InvalidateAccount(ctx context.Context, ownerID, accountID uint) error
}

// Service defines the wallet operations exposed to handlers and other
// services.
type Service interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, ownerID uint) (*models.Account, error)
	GetBalance(ctx context.Context, ownerID uint) (*BalanceSnapshot, error)

	Credit(ctx context.Context, in OperationInput) (*models.Account, error)
	Debit(ctx context.Context, in OperationInput) (*models.Account, error)
	Transfer(ctx context.Context, in TransferInput) error

	Freeze(ctx context.Context, accountID uint, reason string) (*models.Account, error)
	Unfreeze(ctx context.Context, accountID uint) (*models.Account, error)
	Deactivate(ctx context.Context, accountID uint, reason string) (*models.Account, error)
	Reactivate(ctx context.Context, accountID uint) (*models.Account, error)
}
