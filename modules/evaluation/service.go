package evaluation

import (
	"context"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	domain "github.com/WS24/ws24dev-sub001/domain/evaluation"
	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/google/uuid"
)

// Service implements the evaluation store. It knows nothing about task
// lifecycle; the task module owns the status guard and calls in here.
type Service struct {
	repo *Repository
}

// NewService creates an evaluation service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Submit records a specialist's proposal for a task and supersedes any prior
// active proposal. The total cost is recomputed from hours and rate; a
// client-supplied total is never trusted.
func (s *Service) Submit(ctx context.Context, taskID, specialistID string, hours float64, rate money.Money, notes string) (*domain.Evaluation, error) {
	if hours <= 0 || rate.Cmp(0) < 0 {
		return nil, billing.ErrInvalidAmount
	}

	eval := &domain.Evaluation{
		ID:             uuid.New().String(),
		TaskID:         taskID,
		SpecialistID:   specialistID,
		EstimatedHours: hours,
		HourlyRate:     rate,
		TotalCost:      rate.MulScalar(hours),
		Notes:          notes,
		Status:         domain.StatusActive,
	}

	err := s.repo.Transaction(func(tx *Repository) error {
		if err := tx.SupersedeActive(taskID); err != nil {
			return err
		}
		return tx.Create(eval)
	})
	if err != nil {
		return nil, err
	}
	return eval, nil
}

// Accept marks the evaluation accepted. Superseded proposals cannot be
// accepted; accepting an already accepted evaluation is a no-op.
func (s *Service) Accept(ctx context.Context, evaluationID string) (*domain.Evaluation, error) {
	eval, err := s.repo.FindByID(evaluationID)
	if err != nil {
		return nil, err
	}

	switch eval.Status {
	case domain.StatusSuperseded:
		return nil, domain.ErrAlreadySuperseded
	case domain.StatusAccepted:
		return eval, nil
	}

	if err := s.repo.UpdateStatus(eval.ID, domain.StatusAccepted); err != nil {
		return nil, err
	}
	eval.Status = domain.StatusAccepted
	return eval, nil
}

// Get returns an evaluation by ID.
func (s *Service) Get(ctx context.Context, evaluationID string) (*domain.Evaluation, error) {
	return s.repo.FindByID(evaluationID)
}

// GetAccepted returns the task's accepted evaluation.
func (s *Service) GetAccepted(ctx context.Context, taskID string) (*domain.Evaluation, error) {
	return s.repo.FindByTaskAndStatus(taskID, domain.StatusAccepted)
}

// ListForTask returns every proposal submitted for a task, newest first.
func (s *Service) ListForTask(ctx context.Context, taskID string) ([]*domain.Evaluation, error) {
	return s.repo.ListForTask(taskID)
}
