package task

import (
	"context"
	"fmt"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	"github.com/WS24/ws24dev-sub001/domain/identity"
	domain "github.com/WS24/ws24dev-sub001/domain/task"
	"github.com/WS24/ws24dev-sub001/modules/evaluation"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/google/uuid"
)

// Service drives the task lifecycle state machine. Every transition runs
// under the task's lock: read current status, check the edge and the actor
// guard, apply money effects through the ledger port, persist the new status.
//
// Money effects and the status write live in different stores, so ordering is
// chosen per transition to keep funds safe over partial failure:
//
//   - capture: escrow first, persist second; a failed persist is compensated
//     by an immediate refund.
//   - complete: persist first, settle second; payouts are irreversible, so
//     settlement only runs once the completed status is durable, and the
//     status is reverted if settlement fails.
//   - cancel: refund first, persist second; a repeated cancel after a failed
//     persist resumes, treating the existing refund as already done.
type Service struct {
	store       TaskStore
	ledger      ledger.LedgerPort
	evaluations evaluation.EvaluationPort
	locks       *keyedMutex
}

// NewService creates a task service.
func NewService(store TaskStore, ledgerPort ledger.LedgerPort, evaluationPort evaluation.EvaluationPort) *Service {
	return &Service{
		store:       store,
		ledger:      ledgerPort,
		evaluations: evaluationPort,
		locks:       newKeyedMutex(),
	}
}

// Create registers a new task for the calling client in status created.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*domain.Task, error) {
	if req.Actor.Role != identity.RoleClient {
		return nil, domain.ErrForbidden
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidTask)
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.Priority(req.Priority)
		switch priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		default:
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidTask, req.Priority)
		}
	}

	t := &domain.Task{
		ID:          uuid.New().String(),
		ClientID:    req.Actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      domain.StatusCreated,
		Deadline:    req.Deadline,
	}
	if err := s.store.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a task by ID.
func (s *Service) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.store.FindByID(taskID)
}

// List returns tasks matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	return s.store.List(filter)
}

// SubmitEvaluation stores a specialist's pricing proposal for the task. The
// first proposal moves a created task into evaluating; later proposals
// supersede the prior active one without changing the task status.
func (s *Service) SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*domain.Task, *evaluation.EvaluationResponse, error) {
	if req.Actor.Role != identity.RoleSpecialist {
		return nil, nil, domain.ErrForbidden
	}

	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != domain.StatusCreated && t.Status != domain.StatusEvaluating {
		return nil, nil, domain.ErrTaskNotEvaluable
	}

	eval, err := s.evaluations.Submit(ctx, &evaluation.SubmitRequest{
		TaskID:         t.ID,
		SpecialistID:   req.Actor.UserID,
		EstimatedHours: req.EstimatedHours,
		RateCents:      req.RateCents,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, nil, billing.Match(err)
	}

	if t.Status == domain.StatusCreated {
		next, _ := domain.Next(t.Status, domain.EventBeginEvaluation)
		t.Status = next
		if err := s.store.Save(t); err != nil {
			// The proposal is stored; a later submit or accept retries the
			// status advance.
			return nil, nil, err
		}
	}
	return t, eval, nil
}

// AcceptEvaluation accepts an active proposal, binding its specialist and
// cost to the task and advancing it to evaluated.
func (s *Service) AcceptEvaluation(ctx context.Context, req *AcceptEvaluationRequest) (*domain.Task, *evaluation.EvaluationResponse, error) {
	eval, err := s.evaluations.Get(ctx, req.EvaluationID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(eval.TaskID)
	defer unlock()

	t, err := s.store.FindByID(eval.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireClientOrAdmin(t, req.Actor); err != nil {
		return nil, nil, err
	}

	next, ok := domain.Next(t.Status, domain.EventAcceptEvaluation)
	if !ok {
		return nil, nil, domain.ErrInvalidTransition
	}

	accepted, err := s.evaluations.Accept(ctx, req.EvaluationID)
	if err != nil {
		return nil, nil, err
	}

	t.SpecialistID = accepted.SpecialistID
	t.EvaluationID = accepted.ID
	t.Status = next
	if err := s.store.Save(t); err != nil {
		// Accept is idempotent in the store; retrying the call converges.
		return nil, nil, err
	}
	return t, accepted, nil
}

// CapturePayment escrows the accepted evaluation's total from the client's
// balance and advances the task to paid. The escrow is taken before the
// status write; if the write fails the capture is refunded.
func (s *Service) CapturePayment(ctx context.Context, req *CapturePaymentRequest) (*domain.Task, *ledger.EntryResponse, error) {
	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if req.Actor.Role != identity.RoleClient || t.ClientID != req.Actor.UserID {
		return nil, nil, domain.ErrForbidden
	}

	next, ok := domain.Next(t.Status, domain.EventCapturePayment)
	if !ok {
		return nil, nil, domain.ErrInvalidTransition
	}

	eval, err := s.evaluations.Get(ctx, t.EvaluationID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := s.ledger.CaptureForTask(ctx, &ledger.CaptureRequest{
		ClientID:    t.ClientID,
		TaskID:      t.ID,
		AmountCents: eval.TotalCents,
	})
	if err != nil {
		return nil, nil, billing.Match(err)
	}

	t.Status = next
	if err := s.store.Save(t); err != nil {
		if _, rerr := s.ledger.RefundTask(ctx, &ledger.RefundRequest{
			TaskID: t.ID,
			Reason: "capture rollback: status write failed",
		}); rerr != nil {
			return nil, nil, fmt.Errorf("failed to persist paid status and refund compensation failed (%v): %w", rerr, err)
		}
		return nil, nil, fmt.Errorf("failed to persist paid status, capture refunded: %w", err)
	}
	return t, entry, nil
}

// StartWork marks the bound specialist as working on a paid task.
func (s *Service) StartWork(ctx context.Context, req *StartWorkRequest) (*domain.Task, error) {
	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, err
	}
	if err := requireBoundSpecialist(t, req.Actor); err != nil {
		return nil, err
	}

	next, ok := domain.Next(t.Status, domain.EventStartWork)
	if !ok {
		return nil, domain.ErrInvalidTransition
	}
	t.Status = next
	if err := s.store.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Complete marks the work done and settles the escrowed payment into the
// specialist payout and the platform commission. The completed status is
// persisted before settlement; if settlement fails the status is reverted so
// the transition can be retried.
func (s *Service) Complete(ctx context.Context, req *CompleteRequest) (*domain.Task, *ledger.SettleResponse, error) {
	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireBoundSpecialist(t, req.Actor); err != nil {
		return nil, nil, err
	}

	prev := t.Status
	next, ok := domain.Next(t.Status, domain.EventComplete)
	if !ok {
		return nil, nil, domain.ErrInvalidTransition
	}

	t.Status = next
	if err := s.store.Save(t); err != nil {
		return nil, nil, err
	}

	settlement, err := s.ledger.SettleTask(ctx, &ledger.SettleRequest{
		TaskID:       t.ID,
		SpecialistID: t.SpecialistID,
	})
	if err != nil {
		t.Status = prev
		if rerr := s.store.Save(t); rerr != nil {
			return nil, nil, fmt.Errorf("settlement failed and status revert failed (%v): %w", rerr, billing.Match(err))
		}
		return nil, nil, billing.Match(err)
	}
	return t, settlement, nil
}

// Cancel terminates a non-terminal task. If the client's funds are escrowed
// the capture is refunded before the cancelled status is persisted. A cancel
// of an already cancelled task reports ErrAlreadyRefunded when a refund
// exists and ErrInvalidTransition otherwise.
func (s *Service) Cancel(ctx context.Context, req *CancelRequest) (*domain.Task, bool, error) {
	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, false, err
	}
	if err := requireClientOrAdmin(t, req.Actor); err != nil {
		return nil, false, err
	}

	next, ok := domain.Next(t.Status, domain.EventCancel)
	if !ok {
		if t.Status == domain.StatusCancelled {
			// Repeat cancel: probe the ledger so the caller learns the money
			// already moved back. The refund call is idempotent, so a prior
			// cancel that refunded but crashed before reporting is absorbed.
			_, rerr := s.ledger.RefundTask(ctx, &ledger.RefundRequest{
				TaskID: t.ID,
				Reason: req.Reason,
			})
			switch billing.Match(rerr) {
			case nil, billing.ErrAlreadyRefunded:
				return nil, false, billing.ErrAlreadyRefunded
			}
		}
		return nil, false, domain.ErrInvalidTransition
	}

	refunded := false
	if t.Status == domain.StatusPaid || t.Status == domain.StatusInProgress {
		_, err := s.ledger.RefundTask(ctx, &ledger.RefundRequest{
			TaskID: t.ID,
			Reason: req.Reason,
		})
		switch matched := billing.Match(err); matched {
		case nil:
			refunded = true
		case billing.ErrAlreadyRefunded:
			// A prior cancel refunded but failed to persist; resume.
			refunded = true
		default:
			return nil, false, matched
		}
	}

	t.Status = next
	if err := s.store.Save(t); err != nil {
		return nil, false, err
	}
	return t, refunded, nil
}

// Reject is the admin branch out of evaluation for tasks deemed not viable.
func (s *Service) Reject(ctx context.Context, req *RejectRequest) (*domain.Task, error) {
	if req.Actor.Role != identity.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	unlock := s.locks.Lock(req.TaskID)
	defer unlock()

	t, err := s.store.FindByID(req.TaskID)
	if err != nil {
		return nil, err
	}

	next, ok := domain.Next(t.Status, domain.EventReject)
	if !ok {
		return nil, domain.ErrInvalidTransition
	}
	t.Status = next
	if err := s.store.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// requireClientOrAdmin passes for the task's owning client and for admins.
func requireClientOrAdmin(t *domain.Task, actor Actor) error {
	if actor.Role == identity.RoleAdmin {
		return nil
	}
	if actor.Role == identity.RoleClient && t.ClientID == actor.UserID {
		return nil
	}
	return domain.ErrForbidden
}

// requireBoundSpecialist passes only for the specialist bound to the task.
func requireBoundSpecialist(t *domain.Task, actor Actor) error {
	if actor.Role == identity.RoleSpecialist && t.SpecialistID != "" && t.SpecialistID == actor.UserID {
		return nil
	}
	return domain.ErrForbidden
}
