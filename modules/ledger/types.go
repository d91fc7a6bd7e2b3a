package ledger

import (
	"context"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/billing"
)

// TopupRequest is the request for recording a confirmed external topup.
type TopupRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
}

// WithdrawRequest is the request for withdrawing from a user's balance.
type WithdrawRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
}

// CaptureRequest is the request for escrowing a client's funds for a task.
type CaptureRequest struct {
	ClientID    string `json:"client_id"`
	TaskID      string `json:"task_id"`
	AmountCents int64  `json:"amount_cents"`
}

// SettleRequest is the request for settling a task's escrowed payment. The
// commission split is server-owned configuration, not a caller choice.
type SettleRequest struct {
	TaskID       string `json:"task_id"`
	SpecialistID string `json:"specialist_id"`
}

// RefundRequest is the request for refunding a task's escrowed payment.
type RefundRequest struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason,omitempty"`
}

// BalanceRequest is the request for a user's balance projection.
type BalanceRequest struct {
	UserID string `json:"user_id"`
}

// BalanceResponse carries a derived balance in minor units.
type BalanceResponse struct {
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
}

// StatementRequest is the request for a user's entry history.
type StatementRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// StatementResponse lists a user's ledger entries, newest first.
type StatementResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// GetEntryRequest is the request for a single ledger entry.
type GetEntryRequest struct {
	EntryID string `json:"entry_id"`
}

// EntryResponse is the wire representation of a ledger entry.
type EntryResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	FromUserID    string    `json:"from_user_id,omitempty"`
	ToUserID      string    `json:"to_user_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	RelatedTaskID string    `json:"related_task_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SettleResponse carries the entries created by a settlement.
type SettleResponse struct {
	Payment EntryResponse  `json:"payment"`
	Payout  EntryResponse  `json:"payout"`
	Fee     *EntryResponse `json:"fee,omitempty"`
}

// LedgerPort is the contract other modules use to reach the ledger.
type LedgerPort interface {
	RecordTopup(ctx context.Context, req *TopupRequest) (*EntryResponse, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*EntryResponse, error)
	CaptureForTask(ctx context.Context, req *CaptureRequest) (*EntryResponse, error)
	SettleTask(ctx context.Context, req *SettleRequest) (*SettleResponse, error)
	RefundTask(ctx context.Context, req *RefundRequest) (*EntryResponse, error)
	BalanceOf(ctx context.Context, userID string) (*BalanceResponse, error)
	Statement(ctx context.Context, req *StatementRequest) (*StatementResponse, error)
	GetEntry(ctx context.Context, entryID string) (*EntryResponse, error)
}

// toEntryResponse converts a ledger entry to its wire representation.
func toEntryResponse(entry *billing.Entry) EntryResponse {
	return EntryResponse{
		ID:            entry.ID,
		Type:          string(entry.Type),
		Status:        string(entry.Status),
		FromUserID:    entry.FromUserID,
		ToUserID:      entry.ToUserID,
		AmountCents:   entry.Amount.Cents(),
		RelatedTaskID: entry.RelatedTaskID,
		Reason:        entry.Reason,
		CreatedAt:     entry.CreatedAt,
	}
}
