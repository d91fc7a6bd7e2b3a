package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ledgerAdapter wraps the ledger module's ServiceContainer for type-safe
// cross-module calls. It implements LedgerPort.
type ledgerAdapter struct {
	container mono.ServiceContainer
}

// NewLedgerAdapter creates an adapter for the ledger services.
// container is received via SetDependencyServiceContainer.
func NewLedgerAdapter(container mono.ServiceContainer) LedgerPort {
	if container == nil {
		panic("ledger adapter requires non-nil ServiceContainer")
	}
	return &ledgerAdapter{container: container}
}

func call[T any](ctx context.Context, a *ledgerAdapter, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *ledgerAdapter) RecordTopup(ctx context.Context, req *TopupRequest) (*EntryResponse, error) {
	var resp EntryResponse
	if err := call(ctx, a, "topup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) Withdraw(ctx context.Context, req *WithdrawRequest) (*EntryResponse, error) {
	var resp EntryResponse
	if err := call(ctx, a, "withdraw", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) CaptureForTask(ctx context.Context, req *CaptureRequest) (*EntryResponse, error) {
	var resp EntryResponse
	if err := call(ctx, a, "capture", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) SettleTask(ctx context.Context, req *SettleRequest) (*SettleResponse, error) {
	var resp SettleResponse
	if err := call(ctx, a, "settle", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) RefundTask(ctx context.Context, req *RefundRequest) (*EntryResponse, error) {
	var resp EntryResponse
	if err := call(ctx, a, "refund", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) BalanceOf(ctx context.Context, userID string) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := call(ctx, a, "balance", &BalanceRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) Statement(ctx context.Context, req *StatementRequest) (*StatementResponse, error) {
	var resp StatementResponse
	if err := call(ctx, a, "statement", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *ledgerAdapter) GetEntry(ctx context.Context, entryID string) (*EntryResponse, error) {
	var resp EntryResponse
	if err := call(ctx, a, "get-entry", &GetEntryRequest{EntryID: entryID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
