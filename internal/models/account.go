package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is one owner's wallet. Balance is denominated in Currency and is
// only ever mutated together with a ledger entry inside one transaction.
type Account struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OwnerID           uint            `gorm:"uniqueIndex;not null" json:"owner_id"`
	TenantID          *uint           `gorm:"index" json:"tenant_id,omitempty"`
	Balance           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Active            bool            `gorm:"not null;default:true" json:"active"`
	Frozen            bool            `gorm:"not null;default:false" json:"frozen"`
	StatusReason      string          `json:"status_reason,omitempty"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BeforeCreate ensures new accounts always start at zero.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	a.Balance = decimal.Zero
	return nil
}

// Mutable reports whether credits and debits may run against the account.
func (a *Account) Mutable() bool {
	return a.Active && !a.Frozen
}
