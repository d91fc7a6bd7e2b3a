package evaluation

import (
	"errors"
	"fmt"

	domain "github.com/WS24/ws24dev-sub001/domain/evaluation"
	"gorm.io/gorm"
)

// Repository provides access to evaluation storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new evaluation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migration for evaluations.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&domain.Evaluation{})
}

// Transaction runs fn inside a database transaction.
func (r *Repository) Transaction(fn func(txRepo *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Create persists a new evaluation.
func (r *Repository) Create(eval *domain.Evaluation) error {
	if err := r.db.Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

// FindByID retrieves an evaluation by ID.
func (r *Repository) FindByID(id string) (*domain.Evaluation, error) {
	var eval domain.Evaluation
	if err := r.db.First(&eval, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

// FindByTaskAndStatus retrieves the task's evaluation in the given status.
func (r *Repository) FindByTaskAndStatus(taskID string, status domain.Status) (*domain.Evaluation, error) {
	var eval domain.Evaluation
	err := r.db.Where("task_id = ? AND status = ?", taskID, status).First(&eval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to find evaluation for task: %w", err)
	}
	return &eval, nil
}

// ListForTask returns all evaluations ever submitted for a task, newest first.
func (r *Repository) ListForTask(taskID string) ([]*domain.Evaluation, error) {
	var evals []*domain.Evaluation
	err := r.db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&evals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

// SupersedeActive marks the task's active evaluation, if any, as superseded.
func (r *Repository) SupersedeActive(taskID string) error {
	err := r.db.Model(&domain.Evaluation{}).
		Where("task_id = ? AND status = ?", taskID, domain.StatusActive).
		Update("status", domain.StatusSuperseded).Error
	if err != nil {
		return fmt.Errorf("failed to supersede evaluation: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of an evaluation.
func (r *Repository) UpdateStatus(id string, status domain.Status) error {
	result := r.db.Model(&domain.Evaluation{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update evaluation status: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrEvaluationNotFound
	}
	return nil
}
