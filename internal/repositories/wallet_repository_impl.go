package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository builds the Postgres-backed repository.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *walletRepository) CreateAccount(account *models.Account) error {
	if err := r.db.Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *walletRepository) GetAccountByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *walletRepository) GetAccountByOwnerID(ownerID uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("owner_id = ?", ownerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAccountForUpdate locks the account row for the remainder of the
// enclosing transaction. Callers must be inside ExecuteInTransaction.
func (r *walletRepository) GetAccountForUpdate(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &account, nil
}

func (r *walletRepository) UpdateAccount(account *models.Account) error {
	if err := r.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (r *walletRepository) CreateEntry(entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateExternalRef
		}
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *walletRepository) UpdateEntry(entry *models.LedgerEntry) error {
	if err := r.db.Save(entry).Error; err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	return nil
}

func (r *walletRepository) GetEntryByID(id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *walletRepository) GetEntryByExternalRef(ref string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.Where("external_ref = ?", ref).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *walletRepository) GetEntries(accountID uint, limit, offset int, status string) ([]models.LedgerEntry, int64, error) {
	query := r.db.Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

// AggregateTotals sums settled entries per type. Pending, failed and
// cancelled entries never count towards reported totals. Reversed entries
// still count: the money moved, and the compensating entry cancels it.
func (r *walletRepository) AggregateTotals(accountID uint) (map[string]decimal.Decimal, error) {
	type row struct {
		Type  string
		Total decimal.Decimal
	}
	var rows []row
	err := r.db.Model(&models.LedgerEntry{}).
		Where("account_id = ? AND status IN ?", accountID,
			[]string{models.EntryStatusCompleted, models.EntryStatusReversed}).
		Select("type, COALESCE(SUM(amount), 0) as total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger totals: %w", err)
	}

	totals := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.Type] = r.Total
	}
	return totals, nil
}

func (r *walletRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}
