package invoice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// invoiceAdapter wraps the invoice module's ServiceContainer for type-safe
// cross-module calls. It implements InvoicePort.
type invoiceAdapter struct {
	container mono.ServiceContainer
}

// NewInvoiceAdapter creates an adapter for the invoice services.
func NewInvoiceAdapter(container mono.ServiceContainer) InvoicePort {
	if container == nil {
		panic("invoice adapter requires non-nil ServiceContainer")
	}
	return &invoiceAdapter{container: container}
}

func call[T any](ctx context.Context, a *invoiceAdapter, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *invoiceAdapter) Issue(ctx context.Context, req *IssueRequest) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := call(ctx, a, "issue", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *invoiceAdapter) Get(ctx context.Context, invoiceID string) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := call(ctx, a, "get", &GetRequest{InvoiceID: invoiceID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *invoiceAdapter) GetByTransaction(ctx context.Context, transactionID string) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := call(ctx, a, "get-by-transaction", &GetByTransactionRequest{TransactionID: transactionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *invoiceAdapter) ListForPayer(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	var resp ListResponse
	if err := call(ctx, a, "list-for-payer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *invoiceAdapter) MarkPaid(ctx context.Context, invoiceID string) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := call(ctx, a, "mark-paid", &MarkPaidRequest{InvoiceID: invoiceID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *invoiceAdapter) Cancel(ctx context.Context, invoiceID string) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := call(ctx, a, "cancel", &CancelRequest{InvoiceID: invoiceID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
