// Package repositories provides the data access layer for accounts and
// ledger entries.
package repositories

import (
	"github.com/shopspring/decimal"

	"coursepay/internal/models"
)

// WalletRepository persists accounts and their append-only ledger entries.
//
// GetAccountForUpdate is only meaningful inside ExecuteInTransaction: it
// acquires the per-account exclusive section (a row lock in Postgres) so
// that read-validate-write-append runs as one atomic unit.
type WalletRepository interface {
	CreateAccount(account *models.Account) error
	GetAccountByID(id uint) (*models.Account, error)
	GetAccountByOwnerID(ownerID uint) (*models.Account, error)
	GetAccountForUpdate(id uint) (*models.Account, error)
	UpdateAccount(account *models.Account) error

	CreateEntry(entry *models.LedgerEntry) error
	UpdateEntry(entry *models.LedgerEntry) error
	GetEntryByID(id string) (*models.LedgerEntry, error)
	GetEntryByExternalRef(ref string) (*models.LedgerEntry, error)
	GetEntries(accountID uint, limit, offset int, status string) ([]models.LedgerEntry, int64, error)
	AggregateTotals(accountID uint) (map[string]decimal.Decimal, error)

	ExecuteInTransaction(fn func(WalletRepository) error) error
}
