// Package billing provides the domain types for the append-only financial
// ledger. Entries are immutable facts; the only in-place mutation ever
// applied is the pending -> completed|cancelled status transition of an
// escrowed payment. Reversals are modeled as compensating entries.
package billing

import (
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
)

// EntryType classifies a money movement.
type EntryType string

const (
	// EntryTypeTopup credits a user's balance from an external payment
	// already confirmed by the caller.
	EntryTypeTopup EntryType = "topup"
	// EntryTypePayment debits a client for a task. While pending the funds
	// are escrowed; completion disburses them.
	EntryTypePayment EntryType = "payment"
	// EntryTypePayout credits a specialist with their share of a settled task.
	EntryTypePayout EntryType = "payout"
	// EntryTypeWithdrawal debits a user's balance out of the system.
	EntryTypeWithdrawal EntryType = "withdrawal"
	// EntryTypeRefund credits a client back a cancelled capture.
	EntryTypeRefund EntryType = "refund"
	// EntryTypePlatformFee records the platform's retained share of a
	// settlement. It touches no user balance; it exists for auditability.
	EntryTypePlatformFee EntryType = "platform_fee"
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
	EntryStatusCancelled EntryStatus = "cancelled"
)

// Entry is a single atomic money movement. FromUserID is empty for topups,
// ToUserID is empty for withdrawals; platform_fee entries carry neither.
type Entry struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	Type          EntryType   `gorm:"size:20;not null;index" json:"type"`
	Status        EntryStatus `gorm:"size:20;not null;index" json:"status"`
	FromUserID    string      `gorm:"size:36;index" json:"from_user_id,omitempty"`
	ToUserID      string      `gorm:"size:36;index" json:"to_user_id,omitempty"`
	Amount        money.Money `gorm:"not null" json:"amount"`
	RelatedTaskID string      `gorm:"size:36;index" json:"related_task_id,omitempty"`
	Reason        string      `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the table name for ledger entries.
func (Entry) TableName() string {
	return "ledger_entries"
}
