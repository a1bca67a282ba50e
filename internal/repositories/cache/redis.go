// Package cache wraps Redis access for hot wallet reads. Balances are
// authoritative in Postgres; the cache only serves read paths and is
// invalidated on every mutation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coursepay/internal/models"
)

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewClient builds a Redis client from config.
func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// AccountCache caches account snapshots and history pages.
type AccountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAccountCache wraps a Redis client with wallet cache semantics.
func NewAccountCache(client *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{client: client, ttl: ttl}
}

func accountKey(ownerID uint) string {
	return fmt.Sprintf("account:owner:%d", ownerID)
}

func historyKey(accountID uint, limit int) string {
	return fmt.Sprintf("account:%d:history:%d", accountID, limit)
}

// GetAccount returns the cached snapshot for an owner, or an error on miss.
func (c *AccountCache) GetAccount(ctx context.Context, ownerID uint) (*models.Account, error) {
	val, err := c.client.Get(ctx, accountKey(ownerID)).Result()
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := json.Unmarshal([]byte(val), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetAccount stores an account snapshot.
func (c *AccountCache) SetAccount(ctx context.Context, account *models.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, accountKey(account.OwnerID), data, c.ttl).Err()
}

// InvalidateAccount drops the snapshot and any cached history pages for the
// account. Called after every balance or flag mutation.
func (c *AccountCache) InvalidateAccount(ctx context.Context, ownerID, accountID uint) error {
	keys := []string{
		accountKey(ownerID),
		historyKey(accountID, 10),
		historyKey(accountID, 20),
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetHistory returns a cached first page of ledger entries.
func (c *AccountCache) GetHistory(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
	val, err := c.client.Get(ctx, historyKey(accountID, limit)).Result()
	if err != nil {
		return nil, err
	}
	var entries []models.LedgerEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetHistory caches a first page of ledger entries.
func (c *AccountCache) SetHistory(ctx context.Context, accountID uint, limit int, entries []models.LedgerEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, historyKey(accountID, limit), data, c.ttl).Err()
}
