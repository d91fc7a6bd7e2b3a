package invoice

import (
	"errors"
	"fmt"

	domain "github.com/WS24/ws24dev-sub001/domain/invoice"
	"gorm.io/gorm"
)

// Repository provides GORM-backed invoice storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new invoice repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migration for invoices.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&domain.Invoice{})
}

// Transaction runs fn inside a database transaction. The repository passed to
// fn is bound to the transaction; any error rolls everything back.
func (r *Repository) Transaction(fn func(txRepo *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Create persists a new invoice.
func (r *Repository) Create(inv *domain.Invoice) error {
	if err := r.db.Create(inv).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// FindByID retrieves an invoice by ID.
func (r *Repository) FindByID(id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return &inv, nil
}

// FindByTransaction retrieves the invoice issued for a ledger transaction.
func (r *Repository) FindByTransaction(transactionID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.First(&inv, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by transaction: %w", err)
	}
	return &inv, nil
}

// NextNumber allocates the next sequential invoice number. Must run inside
// the same transaction as the insert so concurrent issuers cannot observe
// the same maximum.
func (r *Repository) NextNumber() (int64, error) {
	var max int64
	err := r.db.Model(&domain.Invoice{}).
		Select("COALESCE(MAX(invoice_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return max + 1, nil
}

// UpdateStatus transitions an invoice's status.
func (r *Repository) UpdateStatus(id string, status domain.Status) error {
	result := r.db.Model(&domain.Invoice{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// ListForPayer returns a payer's invoices, newest first.
func (r *Repository) ListForPayer(payerID string, limit int) ([]*domain.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	var invoices []*domain.Invoice
	err := r.db.
		Where("payer_id = ?", payerID).
		Order("invoice_number DESC").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}
