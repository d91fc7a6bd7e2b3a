package invoice

import (
	"context"
	"time"

	domain "github.com/WS24/ws24dev-sub001/domain/invoice"
)

// IssueRequest is the request for issuing an invoice over a completed
// payment transaction. IssuerID is an optional reference to the party the
// payment is owed to.
type IssueRequest struct {
	TransactionID string `json:"transaction_id"`
	IssuerID      string `json:"issuer_id,omitempty"`
}

// GetRequest is the request for a single invoice.
type GetRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// GetByTransactionRequest is the request for a transaction's invoice.
type GetByTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

// ListRequest is the request for a payer's invoice history.
type ListRequest struct {
	PayerID string `json:"payer_id"`
	Limit   int    `json:"limit,omitempty"`
}

// ListResponse lists a payer's invoices, newest first.
type ListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
}

// MarkPaidRequest is the request for marking an invoice paid.
type MarkPaidRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// CancelRequest is the request for cancelling a pending invoice.
type CancelRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceResponse is the wire representation of an invoice.
type InvoiceResponse struct {
	ID            string    `json:"id"`
	InvoiceNumber int64     `json:"invoice_number"`
	TransactionID string    `json:"transaction_id"`
	TaskID        string    `json:"task_id,omitempty"`
	PayerID       string    `json:"payer_id"`
	IssuerID      string    `json:"issuer_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// InvoicePort is the contract other modules use to reach invoicing.
type InvoicePort interface {
	Issue(ctx context.Context, req *IssueRequest) (*InvoiceResponse, error)
	Get(ctx context.Context, invoiceID string) (*InvoiceResponse, error)
	GetByTransaction(ctx context.Context, transactionID string) (*InvoiceResponse, error)
	ListForPayer(ctx context.Context, req *ListRequest) (*ListResponse, error)
	MarkPaid(ctx context.Context, invoiceID string) (*InvoiceResponse, error)
	Cancel(ctx context.Context, invoiceID string) (*InvoiceResponse, error)
}

// toInvoiceResponse converts an invoice to its wire representation.
func toInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TransactionID: inv.TransactionID,
		TaskID:        inv.TaskID,
		PayerID:       inv.PayerID,
		IssuerID:      inv.IssuerID,
		AmountCents:   inv.Amount.Cents(),
		DueDate:       inv.DueDate,
		Status:        string(inv.Status),
		CreatedAt:     inv.CreatedAt,
	}
}
