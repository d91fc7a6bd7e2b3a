package events

import (
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/go-monolith/mono/pkg/helper"
)

// PaymentCapturedEvent is emitted when a client's funds move into task escrow.
type PaymentCapturedEvent struct {
	EntryID    string      `json:"entry_id"`
	TaskID     string      `json:"task_id"`
	ClientID   string      `json:"client_id"`
	Amount     money.Money `json:"amount"`
	CapturedAt time.Time   `json:"captured_at"`
}

// PaymentCapturedV1 is the typed event definition for escrow capture.
// Subject: events.ledger.v1.payment-captured
var PaymentCapturedV1 = helper.EventDefinition[PaymentCapturedEvent](
	"ledger", "PaymentCaptured", "v1",
)

// PayoutIssuedEvent is emitted when a settlement credits the specialist.
type PayoutIssuedEvent struct {
	EntryID      string      `json:"entry_id"`
	TaskID       string      `json:"task_id"`
	SpecialistID string      `json:"specialist_id"`
	Amount       money.Money `json:"amount"`
	PlatformFee  money.Money `json:"platform_fee"`
	IssuedAt     time.Time   `json:"issued_at"`
}

// PayoutIssuedV1 is the typed event definition for specialist payouts.
// Subject: events.ledger.v1.payout-issued
var PayoutIssuedV1 = helper.EventDefinition[PayoutIssuedEvent](
	"ledger", "PayoutIssued", "v1",
)

// PaymentRefundedEvent is emitted when a cancelled capture is credited back.
type PaymentRefundedEvent struct {
	EntryID    string      `json:"entry_id"`
	TaskID     string      `json:"task_id"`
	ClientID   string      `json:"client_id"`
	Amount     money.Money `json:"amount"`
	Reason     string      `json:"reason,omitempty"`
	RefundedAt time.Time   `json:"refunded_at"`
}

// PaymentRefundedV1 is the typed event definition for refunds.
// Subject: events.ledger.v1.payment-refunded
var PaymentRefundedV1 = helper.EventDefinition[PaymentRefundedEvent](
	"ledger", "PaymentRefunded", "v1",
)

// InvoiceIssuedEvent is emitted when an invoice snapshot is persisted.
type InvoiceIssuedEvent struct {
	InvoiceID     string      `json:"invoice_id"`
	InvoiceNumber int64       `json:"invoice_number"`
	TransactionID string      `json:"transaction_id"`
	TaskID        string      `json:"task_id"`
	PayerID       string      `json:"payer_id"`
	Amount        money.Money `json:"amount"`
	IssuedAt      time.Time   `json:"issued_at"`
}

// InvoiceIssuedV1 is the typed event definition for invoice issuance.
// Subject: events.invoice.v1.invoice-issued
var InvoiceIssuedV1 = helper.EventDefinition[InvoiceIssuedEvent](
	"invoice", "InvoiceIssued", "v1",
)
