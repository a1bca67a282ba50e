package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry types. Credit-side types grow the balance, debit-side types shrink
// it; Amount is always stored positive and the type carries the sign.
const (
	EntryTypeCredit      = "credit"
	EntryTypeDebit       = "debit"
	EntryTypeTransferIn  = "transfer_in"
	EntryTypeTransferOut = "transfer_out"
	EntryTypeRefund      = "refund"
	EntryTypeDeposit     = "deposit"
	EntryTypeWithdrawal  = "withdrawal"
)

// Entry statuses.
const (
	EntryStatusPending   = "pending"
	EntryStatusCompleted = "completed"
	EntryStatusFailed    = "failed"
	EntryStatusCancelled = "cancelled"
	EntryStatusReversed  = "reversed"
)

// LedgerEntry is one append-only record of a balance mutation. Entries are
// never updated in place beyond their status; corrections happen through
// compensating entries that point back via ParentEntryID.
type LedgerEntry struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	AccountID     uint            `gorm:"index:idx_entries_account_created;not null" json:"account_id"`
	Type          string          `gorm:"size:16;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	Status        string          `gorm:"size:16;not null;default:'pending'" json:"status"`
	PurposeTag    string          `gorm:"size:64;index" json:"purpose_tag,omitempty"`
	ExternalRef   *string         `gorm:"uniqueIndex;size:128" json:"external_ref,omitempty"`
	ParentEntryID *string         `gorm:"size:36;index" json:"parent_entry_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Metadata      JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time       `gorm:"index:idx_entries_account_created" json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// IsCreditType reports whether the entry type sits on the credit side.
func IsCreditType(entryType string) bool {
	switch entryType {
	case EntryTypeCredit, EntryTypeTransferIn, EntryTypeRefund, EntryTypeDeposit:
		return true
	}
	return false
}

// IsCredit reports whether this entry grew the balance.
func (e *LedgerEntry) IsCredit() bool {
	return IsCreditType(e.Type)
}

// SignedAmount returns the amount with the sign implied by the entry type.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.IsCredit() {
		return e.Amount
	}
	return e.Amount.Neg()
}
