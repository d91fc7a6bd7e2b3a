package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	domain "github.com/WS24/ws24dev-sub001/domain/invoice"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLedger serves GetEntry from a fixed entry table, wrapping errors the
// way the service bus delivers them.
type mockLedger struct {
	entries map[string]*ledger.EntryResponse
}

func (l *mockLedger) GetEntry(_ context.Context, entryID string) (*ledger.EntryResponse, error) {
	entry, ok := l.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("service call failed: %s", billing.ErrEntryNotFound.Error())
	}
	return entry, nil
}

func (l *mockLedger) RecordTopup(context.Context, *ledger.TopupRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) Withdraw(context.Context, *ledger.WithdrawRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) CaptureForTask(context.Context, *ledger.CaptureRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) SettleTask(context.Context, *ledger.SettleRequest) (*ledger.SettleResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) RefundTask(context.Context, *ledger.RefundRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) BalanceOf(context.Context, string) (*ledger.BalanceResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) Statement(context.Context, *ledger.StatementRequest) (*ledger.StatementResponse, error) {
	return nil, errors.New("not used")
}

func setupService(t *testing.T) (*Service, *mockLedger) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())

	ld := &mockLedger{entries: map[string]*ledger.EntryResponse{
		"txn-1": {
			ID: "txn-1", Type: "payment", Status: "completed",
			FromUserID: "client-1", RelatedTaskID: "task-1", AmountCents: 75000,
		},
		"txn-2": {
			ID: "txn-2", Type: "payment", Status: "completed",
			FromUserID: "client-2", RelatedTaskID: "task-2", AmountCents: 12000,
		},
		"txn-pending": {
			ID: "txn-pending", Type: "payment", Status: "pending",
			FromUserID: "client-1", RelatedTaskID: "task-3", AmountCents: 5000,
		},
		"txn-refund": {
			ID: "txn-refund", Type: "refund", Status: "completed",
			ToUserID: "client-1", RelatedTaskID: "task-4", AmountCents: 5000,
		},
	}}
	return NewService(repo, ld), ld
}

func TestIssue(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "txn-1", "spec-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.InvoiceNumber)
	assert.Equal(t, "client-1", inv.PayerID)
	assert.Equal(t, "spec-1", inv.IssuerID)
	assert.Equal(t, "task-1", inv.TaskID)
	assert.Equal(t, int64(75000), inv.Amount.Cents())
	assert.Equal(t, domain.StatusPending, inv.Status)

	// Payment terms: 14 days from issuance.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), inv.DueDate, time.Minute)

	t.Run("numbers are sequential", func(t *testing.T) {
		second, err := svc.Issue(ctx, "txn-2", "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.InvoiceNumber)
	})

	t.Run("re-issue returns the stored invoice", func(t *testing.T) {
		again, err := svc.Issue(ctx, "txn-1", "spec-1")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, again.ID)
		assert.Equal(t, inv.InvoiceNumber, again.InvoiceNumber)
	})
}

func TestIssueRejectsNonInvoiceable(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("pending payment", func(t *testing.T) {
		_, err := svc.Issue(ctx, "txn-pending", "")
		assert.ErrorIs(t, err, domain.ErrNotInvoiceable)
	})

	t.Run("non-payment entry", func(t *testing.T) {
		_, err := svc.Issue(ctx, "txn-refund", "")
		assert.ErrorIs(t, err, domain.ErrNotInvoiceable)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := svc.Issue(ctx, "txn-missing", "")
		assert.ErrorIs(t, err, billing.ErrEntryNotFound)
	})
}

func TestIssueConcurrent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	const goroutines = 8
	numbers := make([]int64, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := svc.Issue(ctx, "txn-1", "")
			if err != nil {
				errs[i] = err
				return
			}
			numbers[i] = inv.InvoiceNumber
		}(i)
	}
	wg.Wait()

	// Every caller must see the same single invoice.
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(1), numbers[i])
	}

	invoices, err := svc.ListForPayer(ctx, "client-1", 0)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "txn-1", "")
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	t.Run("mark paid is idempotent", func(t *testing.T) {
		again, err := svc.MarkPaid(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, again.Status)
	})

	t.Run("paid invoices cannot be cancelled", func(t *testing.T) {
		_, err := svc.Cancel(ctx, inv.ID)
		assert.ErrorIs(t, err, domain.ErrInvoiceClosed)
	})

	t.Run("cancelled invoices cannot be reopened", func(t *testing.T) {
		other, err := svc.Issue(ctx, "txn-2", "")
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)

		_, err = svc.MarkPaid(ctx, other.ID)
		assert.ErrorIs(t, err, domain.ErrInvoiceClosed)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := svc.MarkPaid(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	})
}
