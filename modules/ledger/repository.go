package ledger

import (
	"errors"
	"fmt"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"gorm.io/gorm"
)

// Repository provides access to the append-only ledger entry storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migration for ledger entries.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&billing.Entry{})
}

// Transaction runs fn inside a database transaction. The repository passed to
// fn is bound to the transaction; any error rolls everything back.
func (r *Repository) Transaction(fn func(txRepo *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Insert appends a new entry to the ledger.
func (r *Repository) Insert(entry *billing.Entry) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// FindByID retrieves an entry by ID.
func (r *Repository) FindByID(id string) (*billing.Entry, error) {
	var entry billing.Entry
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}
	return &entry, nil
}

// FindPaymentForTask returns the live (pending or completed) payment entry for
// a task. Cancelled payments do not count; they have been compensated by a
// refund entry.
func (r *Repository) FindPaymentForTask(taskID string) (*billing.Entry, error) {
	var entry billing.Entry
	err := r.db.
		Where("related_task_id = ? AND type = ?", taskID, billing.EntryTypePayment).
		Where("status IN ?", []billing.EntryStatus{billing.EntryStatusPending, billing.EntryStatusCompleted}).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find payment for task: %w", err)
	}
	return &entry, nil
}

// HasRefundForTask reports whether a refund entry exists for the task.
func (r *Repository) HasRefundForTask(taskID string) (bool, error) {
	var count int64
	err := r.db.Model(&billing.Entry{}).
		Where("related_task_id = ? AND type = ?", taskID, billing.EntryTypeRefund).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count refunds for task: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus applies the one in-place mutation the ledger permits: a status
// transition on an existing entry.
func (r *Repository) UpdateStatus(id string, status billing.EntryStatus) error {
	result := r.db.Model(&billing.Entry{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	if result.RowsAffected == 0 {
		return billing.ErrEntryNotFound
	}
	return nil
}

// CompletedNet returns the signed sum of the user's settled entries: credits
// (completed entries to the user) minus debits (completed entries from the
// user). A cancelled payment still counts as a debit: its escrow was released
// by a completed refund credit, and the pair must net to zero.
func (r *Repository) CompletedNet(userID string) (money.Money, error) {
	var total int64
	err := r.db.Model(&billing.Entry{}).
		Select("COALESCE(SUM(CASE WHEN to_user_id = ? THEN amount ELSE -amount END), 0)", userID).
		Where("status = ? OR (type = ? AND status = ?)",
			billing.EntryStatusCompleted, billing.EntryTypePayment, billing.EntryStatusCancelled).
		Where("to_user_id = ? OR from_user_id = ?", userID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to project balance: %w", err)
	}
	return money.FromCents(total), nil
}

// PendingDebits returns the sum of the user's pending payment entries, i.e.
// funds escrowed for tasks and not spendable.
func (r *Repository) PendingDebits(userID string) (money.Money, error) {
	var total int64
	err := r.db.Model(&billing.Entry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("from_user_id = ? AND type = ? AND status = ?",
			userID, billing.EntryTypePayment, billing.EntryStatusPending).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending debits: %w", err)
	}
	return money.FromCents(total), nil
}

// StatementFor returns the entries touching a user, newest first.
func (r *Repository) StatementFor(userID string, limit int) ([]*billing.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []*billing.Entry
	err := r.db.
		Where("to_user_id = ? OR from_user_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load statement: %w", err)
	}
	return entries, nil
}
