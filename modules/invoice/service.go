package invoice

import (
	"context"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	domain "github.com/WS24/ws24dev-sub001/domain/invoice"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// dueInDays is the payment term stamped on every issued invoice.
const dueInDays = 14

// Service issues immutable invoice snapshots for completed payment entries.
// Issuance is idempotent on the transaction ID three ways: concurrent calls
// collapse through singleflight, sequential calls hit the stored invoice,
// and racing processes fall back on the unique transaction index.
type Service struct {
	repo   *Repository
	ledger ledger.LedgerPort
	group  singleflight.Group
}

// NewService creates an invoice service.
func NewService(repo *Repository, ledgerPort ledger.LedgerPort) *Service {
	return &Service{repo: repo, ledger: ledgerPort}
}

// Issue creates the invoice for a completed payment transaction, or returns
// the already issued one. Only completed payment entries are invoiceable.
func (s *Service) Issue(ctx context.Context, transactionID, issuerID string) (*domain.Invoice, error) {
	v, err, _ := s.group.Do(transactionID, func() (any, error) {
		return s.issue(ctx, transactionID, issuerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Invoice), nil
}

func (s *Service) issue(ctx context.Context, transactionID, issuerID string) (*domain.Invoice, error) {
	if existing, err := s.repo.FindByTransaction(transactionID); err == nil {
		return existing, nil
	} else if err != domain.ErrInvoiceNotFound {
		return nil, err
	}

	entry, err := s.ledger.GetEntry(ctx, transactionID)
	if err != nil {
		return nil, billing.Match(err)
	}
	if entry.Type != string(billing.EntryTypePayment) || entry.Status != string(billing.EntryStatusCompleted) {
		return nil, domain.ErrNotInvoiceable
	}

	inv := &domain.Invoice{
		ID:            uuid.New().String(),
		TransactionID: transactionID,
		TaskID:        entry.RelatedTaskID,
		PayerID:       entry.FromUserID,
		IssuerID:      issuerID,
		Amount:        money.FromCents(entry.AmountCents),
		DueDate:       time.Now().AddDate(0, 0, dueInDays),
		Status:        domain.StatusPending,
	}

	err = s.repo.Transaction(func(tx *Repository) error {
		number, err := tx.NextNumber()
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		return tx.Create(inv)
	})
	if err != nil {
		// A racing process may have won the unique transaction index.
		if existing, ferr := s.repo.FindByTransaction(transactionID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return inv, nil
}

// Get returns an invoice by ID.
func (s *Service) Get(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.repo.FindByID(invoiceID)
}

// GetByTransaction returns the invoice issued for a ledger transaction.
func (s *Service) GetByTransaction(ctx context.Context, transactionID string) (*domain.Invoice, error) {
	return s.repo.FindByTransaction(transactionID)
}

// ListForPayer returns a payer's invoices, newest first.
func (s *Service) ListForPayer(ctx context.Context, payerID string, limit int) ([]*domain.Invoice, error) {
	return s.repo.ListForPayer(payerID, limit)
}

// MarkPaid transitions a pending invoice to paid. Marking an already paid
// invoice is a no-op; a cancelled invoice cannot be reopened.
func (s *Service) MarkPaid(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.transition(invoiceID, domain.StatusPaid)
}

// Cancel transitions a pending invoice to cancelled. Cancelling an already
// cancelled invoice is a no-op; a paid invoice cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.transition(invoiceID, domain.StatusCancelled)
}

func (s *Service) transition(invoiceID string, to domain.Status) (*domain.Invoice, error) {
	inv, err := s.repo.FindByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == to {
		return inv, nil
	}
	if inv.Status != domain.StatusPending {
		return nil, domain.ErrInvoiceClosed
	}
	if err := s.repo.UpdateStatus(inv.ID, to); err != nil {
		return nil, err
	}
	inv.Status = to
	return inv, nil
}
