// Package invoice provides the immutable billing document derived from a
// completed payment transaction.
package invoice

import (
	"errors"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
)

// Status is the only mutable aspect of an issued invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var (
	// ErrInvoiceNotFound is returned when an invoice does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrNotInvoiceable is returned when the referenced transaction is not a
	// completed payment entry.
	ErrNotInvoiceable = errors.New("transaction not invoiceable")
	// ErrInvoiceClosed is returned when a status change is requested on an
	// invoice that already reached paid or cancelled.
	ErrInvoiceClosed = errors.New("invoice already closed")
)

// Invoice is a snapshot of one completed payment transaction. The unique
// TransactionID index makes issuance idempotent; InvoiceNumber is allocated
// sequentially under the same transaction as the insert.
type Invoice struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	InvoiceNumber int64       `gorm:"uniqueIndex;not null" json:"invoice_number"`
	TransactionID string      `gorm:"size:36;uniqueIndex;not null" json:"transaction_id"`
	TaskID        string      `gorm:"size:36;index" json:"task_id"`
	PayerID       string      `gorm:"size:36;not null;index" json:"payer_id"`
	IssuerID      string      `gorm:"size:36" json:"issuer_id,omitempty"`
	Amount        money.Money `gorm:"not null" json:"amount"`
	DueDate       time.Time   `json:"due_date"`
	Status        Status      `gorm:"size:20;not null;index" json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName returns the table name for invoices.
func (Invoice) TableName() string {
	return "invoices"
}
