package task

import (
	"errors"
	"fmt"

	domain "github.com/WS24/ws24dev-sub001/domain/task"
	"gorm.io/gorm"
)

// TaskStore is the persistence contract the state machine drives. Tasks are
// never deleted; terminal statuses mark logical termination.
type TaskStore interface {
	Create(task *domain.Task) error
	FindByID(id string) (*domain.Task, error)
	Save(task *domain.Task) error
	List(filter ListFilter) ([]*domain.Task, error)
}

// ListFilter narrows a task listing. Empty fields match everything.
type ListFilter struct {
	ClientID     string
	SpecialistID string
	Status       domain.Status
	Category     string
}

// Repository provides GORM-backed task storage.
type Repository struct {
	db *gorm.DB
}

var _ TaskStore = (*Repository)(nil)

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migration for tasks.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

// Create persists a new task.
func (r *Repository) Create(task *domain.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by ID.
func (r *Repository) FindByID(id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Save persists the task's current state.
func (r *Repository) Save(task *domain.Task) error {
	if err := r.db.Save(task).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// List returns tasks matching the filter, newest first.
func (r *Repository) List(filter ListFilter) ([]*domain.Task, error) {
	query := r.db.Order("created_at DESC")
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.SpecialistID != "" {
		query = query.Where("specialist_id = ?", filter.SpecialistID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var tasks []*domain.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
