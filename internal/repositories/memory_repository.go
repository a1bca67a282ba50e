package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
)

// memoryStore holds account and ledger state with no locking of its own.
type memoryStore struct {
	nextID   uint
	accounts map[uint]models.Account
	entries  []models.LedgerEntry
}

// memoryRepository is an in-process WalletRepository. A single mutex
// serializes transactions, which gives the same per-account exclusivity the
// Postgres row lock provides. Used by unit tests and local development.
type memoryRepository struct {
	mu    sync.Mutex
	store memoryStore
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() WalletRepository {
	return &memoryRepository{
		store: memoryStore{
			nextID:   1,
			accounts: make(map[uint]models.Account),
		},
	}
}

func (s *memoryStore) createAccount(account *models.Account) error {
	for _, existing := range s.accounts {
		if existing.OwnerID == account.OwnerID {
			return domain.ErrAccountExists
		}
	}
	account.ID = s.nextID
	s.nextID++
	account.Balance = decimal.Zero
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = *account
	return nil
}

func (s *memoryStore) getAccountByID(id uint) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (s *memoryStore) getAccountByOwnerID(ownerID uint) (*models.Account, error) {
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			found := account
			return &found, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *memoryStore) updateAccount(account *models.Account) error {
	if _, ok := s.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = *account
	return nil
}

func (s *memoryStore) createEntry(entry *models.LedgerEntry) error {
	if entry.ExternalRef != nil {
		for _, existing := range s.entries {
			if existing.ExternalRef != nil && *existing.ExternalRef == *entry.ExternalRef {
				return domain.ErrDuplicateExternalRef
			}
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memoryStore) updateEntry(entry *models.LedgerEntry) error {
	for i, existing := range s.entries {
		if existing.ID == entry.ID {
			s.entries[i] = *entry
			return nil
		}
	}
	return domain.ErrEntryNotFound
}

func (s *memoryStore) getEntryByID(id string) (*models.LedgerEntry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			found := entry
			return &found, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (s *memoryStore) getEntryByExternalRef(ref string) (*models.LedgerEntry, error) {
	for _, entry := range s.entries {
		if entry.ExternalRef != nil && *entry.ExternalRef == ref {
			found := entry
			return &found, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (s *memoryStore) getEntries(accountID uint, limit, offset int, status string) ([]models.LedgerEntry, int64, error) {
	var matched []models.LedgerEntry
	for _, entry := range s.entries {
		if entry.AccountID != accountID {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		matched = append(matched, entry)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]models.LedgerEntry, end-offset)
	copy(page, matched[offset:end])
	return page, total, nil
}

func (s *memoryStore) aggregateTotals(accountID uint) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, entry := range s.entries {
		if entry.AccountID != accountID {
			continue
		}
		if entry.Status != models.EntryStatusCompleted && entry.Status != models.EntryStatusReversed {
			continue
		}
		totals[entry.Type] = totals[entry.Type].Add(entry.Amount)
	}
	return totals, nil
}

func (s *memoryStore) snapshot() memoryStore {
	accounts := make(map[uint]models.Account, len(s.accounts))
	for id, account := range s.accounts {
		accounts[id] = account
	}
	entries := make([]models.LedgerEntry, len(s.entries))
	copy(entries, s.entries)
	return memoryStore{nextID: s.nextID, accounts: accounts, entries: entries}
}

func (r *memoryRepository) CreateAccount(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.createAccount(account)
}

func (r *memoryRepository) GetAccountByID(id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getAccountByID(id)
}

func (r *memoryRepository) GetAccountByOwnerID(ownerID uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getAccountByOwnerID(ownerID)
}

func (r *memoryRepository) GetAccountForUpdate(id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getAccountByID(id)
}

func (r *memoryRepository) UpdateAccount(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.updateAccount(account)
}

func (r *memoryRepository) CreateEntry(entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.createEntry(entry)
}

func (r *memoryRepository) UpdateEntry(entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.updateEntry(entry)
}

func (r *memoryRepository) GetEntryByID(id string) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getEntryByID(id)
}

func (r *memoryRepository) GetEntryByExternalRef(ref string) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getEntryByExternalRef(ref)
}

func (r *memoryRepository) GetEntries(accountID uint, limit, offset int, status string) ([]models.LedgerEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.getEntries(accountID, limit, offset, status)
}

func (r *memoryRepository) AggregateTotals(accountID uint) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.aggregateTotals(accountID)
}

// ExecuteInTransaction runs the callback with the repository mutex held and
// rolls state back if it fails, mirroring a database transaction.
func (r *memoryRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.store.snapshot()
	err := fn(&memoryTx{store: &r.store})
	if err != nil {
		r.store = saved
	}
	return err
}

// memoryTx exposes the store without locking; the parent transaction holds
// the mutex for its whole duration.
type memoryTx struct {
	store *memoryStore
}

func (t *memoryTx) CreateAccount(a *models.Account) error          { return t.store.createAccount(a) }
func (t *memoryTx) GetAccountByID(id uint) (*models.Account, error) { return t.store.getAccountByID(id) }
func (t *memoryTx) GetAccountByOwnerID(id uint) (*models.Account, error) {
	return t.store.getAccountByOwnerID(id)
}
func (t *memoryTx) GetAccountForUpdate(id uint) (*models.Account, error) {
	return t.store.getAccountByID(id)
}
func (t *memoryTx) UpdateAccount(a *models.Account) error        { return t.store.updateAccount(a) }
func (t *memoryTx) CreateEntry(e *models.LedgerEntry) error      { return t.store.createEntry(e) }
func (t *memoryTx) UpdateEntry(e *models.LedgerEntry) error      { return t.store.updateEntry(e) }
func (t *memoryTx) GetEntryByID(id string) (*models.LedgerEntry, error) {
	return t.store.getEntryByID(id)
}
func (t *memoryTx) GetEntryByExternalRef(ref string) (*models.LedgerEntry, error) {
	return t.store.getEntryByExternalRef(ref)
}
func (t *memoryTx) GetEntries(accountID uint, limit, offset int, status string) ([]models.LedgerEntry, int64, error) {
	return t.store.getEntries(accountID, limit, offset, status)
}
func (t *memoryTx) AggregateTotals(accountID uint) (map[string]decimal.Decimal, error) {
	return t.store.aggregateTotals(accountID)
}
func (t *memoryTx) ExecuteInTransaction(fn func(WalletRepository) error) error {
	return fn(t)
}
