package task

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/WS24/ws24dev-sub001/domain/billing"
	"github.com/WS24/ws24dev-sub001/domain/identity"
	domain "github.com/WS24/ws24dev-sub001/domain/task"
	"github.com/WS24/ws24dev-sub001/modules/evaluation"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory TaskStore. It hands out copies so that a failed
// Save leaves the stored state untouched, like a real database would.
type mockStore struct {
	tasks   map[string]*domain.Task
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{tasks: make(map[string]*domain.Task)}
}

func (s *mockStore) Create(t *domain.Task) error {
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *mockStore) FindByID(id string) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *mockStore) Save(t *domain.Task) error {
	if s.saveErr != nil {
		err := s.saveErr
		s.saveErr = nil
		return err
	}
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *mockStore) List(filter ListFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range s.tasks {
		if filter.ClientID != "" && t.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

// mockLedger records the money effects the state machine requests. Errors
// are returned wrapped in call context, the way the service bus delivers
// them, so sentinel recovery is exercised too.
type mockLedger struct {
	captures []ledger.CaptureRequest
	settles  []ledger.SettleRequest
	refunds  []ledger.RefundRequest

	captureErr error
	settleErr  error
	refundErr  error
}

func wireErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("service call failed: %s", err.Error())
}

func (l *mockLedger) CaptureForTask(_ context.Context, req *ledger.CaptureRequest) (*ledger.EntryResponse, error) {
	if l.captureErr != nil {
		return nil, wireErr(l.captureErr)
	}
	l.captures = append(l.captures, *req)
	return &ledger.EntryResponse{ID: "entry-capture", Type: "payment", Status: "pending", AmountCents: req.AmountCents}, nil
}

func (l *mockLedger) SettleTask(_ context.Context, req *ledger.SettleRequest) (*ledger.SettleResponse, error) {
	if l.settleErr != nil {
		return nil, wireErr(l.settleErr)
	}
	l.settles = append(l.settles, *req)
	fee := ledger.EntryResponse{ID: "entry-fee", Type: "platform_fee", AmountCents: 37500}
	return &ledger.SettleResponse{
		Payment: ledger.EntryResponse{ID: "entry-capture", Type: "payment", Status: "completed", AmountCents: 75000},
		Payout:  ledger.EntryResponse{ID: "entry-payout", Type: "payout", AmountCents: 37500},
		Fee:     &fee,
	}, nil
}

func (l *mockLedger) RefundTask(_ context.Context, req *ledger.RefundRequest) (*ledger.EntryResponse, error) {
	if l.refundErr != nil {
		return nil, wireErr(l.refundErr)
	}
	l.refunds = append(l.refunds, *req)
	return &ledger.EntryResponse{ID: "entry-refund", Type: "refund", AmountCents: 75000}, nil
}

func (l *mockLedger) RecordTopup(context.Context, *ledger.TopupRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) Withdraw(context.Context, *ledger.WithdrawRequest) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) BalanceOf(context.Context, string) (*ledger.BalanceResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) Statement(context.Context, *ledger.StatementRequest) (*ledger.StatementResponse, error) {
	return nil, errors.New("not used")
}

func (l *mockLedger) GetEntry(context.Context, string) (*ledger.EntryResponse, error) {
	return nil, errors.New("not used")
}

// mockEvaluations is an in-memory EvaluationPort.
type mockEvaluations struct {
	evals map[string]*evaluation.EvaluationResponse
	next  int
}

func newMockEvaluations() *mockEvaluations {
	return &mockEvaluations{evals: make(map[string]*evaluation.EvaluationResponse)}
}

func (e *mockEvaluations) Submit(_ context.Context, req *evaluation.SubmitRequest) (*evaluation.EvaluationResponse, error) {
	if req.EstimatedHours <= 0 || req.RateCents < 0 {
		return nil, wireErr(billing.ErrInvalidAmount)
	}
	e.next++
	eval := &evaluation.EvaluationResponse{
		ID:             fmt.Sprintf("eval-%d", e.next),
		TaskID:         req.TaskID,
		SpecialistID:   req.SpecialistID,
		EstimatedHours: req.EstimatedHours,
		RateCents:      req.RateCents,
		TotalCents:     int64(float64(req.RateCents)*req.EstimatedHours + 0.5),
		Status:         "active",
	}
	e.evals[eval.ID] = eval
	return eval, nil
}

func (e *mockEvaluations) Accept(_ context.Context, id string) (*evaluation.EvaluationResponse, error) {
	eval, ok := e.evals[id]
	if !ok {
		return nil, wireErr(errors.New("evaluation not found"))
	}
	eval.Status = "accepted"
	return eval, nil
}

func (e *mockEvaluations) Get(_ context.Context, id string) (*evaluation.EvaluationResponse, error) {
	eval, ok := e.evals[id]
	if !ok {
		return nil, wireErr(errors.New("evaluation not found"))
	}
	return eval, nil
}

func (e *mockEvaluations) GetAccepted(context.Context, string) (*evaluation.EvaluationResponse, error) {
	return nil, errors.New("not used")
}

func (e *mockEvaluations) ListForTask(context.Context, string) (*evaluation.ListResponse, error) {
	return nil, errors.New("not used")
}

type fixture struct {
	svc    *Service
	store  *mockStore
	ledger *mockLedger
	evals  *mockEvaluations
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := newMockStore()
	ld := &mockLedger{}
	ev := newMockEvaluations()
	return &fixture{svc: NewService(store, ld, ev), store: store, ledger: ld, evals: ev}
}

var (
	client     = Actor{UserID: "client-1", Role: identity.RoleClient}
	specialist = Actor{UserID: "spec-1", Role: identity.RoleSpecialist}
	admin      = Actor{UserID: "admin-1", Role: identity.RoleAdmin}
)

// seed installs a task directly at the given status.
func (f *fixture) seed(id string, status domain.Status) *domain.Task {
	t := &domain.Task{
		ID:       id,
		ClientID: client.UserID,
		Title:    "Fix the build",
		Priority: domain.PriorityMedium,
		Status:   status,
	}
	if status != domain.StatusCreated && status != domain.StatusEvaluating {
		t.SpecialistID = specialist.UserID
		t.EvaluationID = "eval-accepted"
		f.evals.evals["eval-accepted"] = &evaluation.EvaluationResponse{
			ID:           "eval-accepted",
			TaskID:       id,
			SpecialistID: specialist.UserID,
			TotalCents:   75000,
			Status:       "accepted",
		}
	}
	f.store.tasks[id] = t
	return t
}

func TestCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &CreateRequest{Actor: client, Title: "Fix the build", Category: "devops"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, client.UserID, created.ClientID)
	assert.NotEmpty(t, created.ID)

	t.Run("only clients create tasks", func(t *testing.T) {
		_, err := f.svc.Create(ctx, &CreateRequest{Actor: specialist, Title: "x"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("title is required", func(t *testing.T) {
		_, err := f.svc.Create(ctx, &CreateRequest{Actor: client})
		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})

	t.Run("unknown priority rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, &CreateRequest{Actor: client, Title: "x", Priority: "urgent"})
		assert.ErrorIs(t, err, domain.ErrInvalidTask)
	})
}

func TestSubmitEvaluation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusCreated)

	moved, eval, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
		Actor: specialist, TaskID: "task-1", EstimatedHours: 10, RateCents: 7500,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEvaluating, moved.Status)
	assert.Equal(t, int64(75000), eval.TotalCents)

	t.Run("later proposals keep status evaluating", func(t *testing.T) {
		moved, _, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
			Actor: Actor{UserID: "spec-2", Role: identity.RoleSpecialist},
			TaskID: "task-1", EstimatedHours: 8, RateCents: 9000,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEvaluating, moved.Status)
	})

	t.Run("only specialists evaluate", func(t *testing.T) {
		_, _, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
			Actor: client, TaskID: "task-1", EstimatedHours: 1, RateCents: 100,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("past evaluation stage", func(t *testing.T) {
		f.seed("task-paid", domain.StatusPaid)
		_, _, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
			Actor: specialist, TaskID: "task-paid", EstimatedHours: 1, RateCents: 100,
		})
		assert.ErrorIs(t, err, domain.ErrTaskNotEvaluable)
	})

	t.Run("invalid amounts surface the sentinel", func(t *testing.T) {
		f.seed("task-2", domain.StatusCreated)
		_, _, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
			Actor: specialist, TaskID: "task-2", EstimatedHours: 0, RateCents: 100,
		})
		assert.ErrorIs(t, err, billing.ErrInvalidAmount)
	})
}

func TestAcceptEvaluation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusCreated)

	_, eval, err := f.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
		Actor: specialist, TaskID: "task-1", EstimatedHours: 10, RateCents: 7500,
	})
	require.NoError(t, err)

	t.Run("stranger cannot accept", func(t *testing.T) {
		other := Actor{UserID: "client-9", Role: identity.RoleClient}
		_, _, err := f.svc.AcceptEvaluation(ctx, &AcceptEvaluationRequest{Actor: other, EvaluationID: eval.ID})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	accepted, _, err := f.svc.AcceptEvaluation(ctx, &AcceptEvaluationRequest{Actor: client, EvaluationID: eval.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEvaluated, accepted.Status)
	assert.Equal(t, specialist.UserID, accepted.SpecialistID)
	assert.Equal(t, eval.ID, accepted.EvaluationID)

	t.Run("no accept edge from evaluated", func(t *testing.T) {
		_, _, err := f.svc.AcceptEvaluation(ctx, &AcceptEvaluationRequest{Actor: client, EvaluationID: eval.ID})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("admin may accept on the client's behalf", func(t *testing.T) {
		f2 := setup(t)
		f2.seed("task-1", domain.StatusCreated)
		_, eval, err := f2.svc.SubmitEvaluation(ctx, &SubmitEvaluationRequest{
			Actor: specialist, TaskID: "task-1", EstimatedHours: 2, RateCents: 5000,
		})
		require.NoError(t, err)
		accepted, _, err := f2.svc.AcceptEvaluation(ctx, &AcceptEvaluationRequest{Actor: admin, EvaluationID: eval.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEvaluated, accepted.Status)
	})
}

func TestCapturePayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusEvaluated)

	paid, entry, err := f.svc.CapturePayment(ctx, &CapturePaymentRequest{Actor: client, TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.Equal(t, int64(75000), entry.AmountCents)

	require.Len(t, f.ledger.captures, 1)
	assert.Equal(t, "task-1", f.ledger.captures[0].TaskID)
	assert.Equal(t, client.UserID, f.ledger.captures[0].ClientID)
	assert.Equal(t, int64(75000), f.ledger.captures[0].AmountCents)

	t.Run("only the owning client pays", func(t *testing.T) {
		f.seed("task-2", domain.StatusEvaluated)
		_, _, err := f.svc.CapturePayment(ctx, &CapturePaymentRequest{Actor: specialist, TaskID: "task-2"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no capture edge from paid", func(t *testing.T) {
		_, _, err := f.svc.CapturePayment(ctx, &CapturePaymentRequest{Actor: client, TaskID: "task-1"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("insufficient balance surfaces the sentinel", func(t *testing.T) {
		f2 := setup(t)
		f2.seed("task-1", domain.StatusEvaluated)
		f2.ledger.captureErr = billing.ErrInsufficientBalance

		_, _, err := f2.svc.CapturePayment(ctx, &CapturePaymentRequest{Actor: client, TaskID: "task-1"})
		assert.ErrorIs(t, err, billing.ErrInsufficientBalance)

		stored, ferr := f2.store.FindByID("task-1")
		require.NoError(t, ferr)
		assert.Equal(t, domain.StatusEvaluated, stored.Status)
	})

	t.Run("failed status write refunds the capture", func(t *testing.T) {
		f2 := setup(t)
		f2.seed("task-1", domain.StatusEvaluated)
		f2.store.saveErr = errors.New("disk full")

		_, _, err := f2.svc.CapturePayment(ctx, &CapturePaymentRequest{Actor: client, TaskID: "task-1"})
		require.Error(t, err)

		require.Len(t, f2.ledger.refunds, 1)
		assert.Equal(t, "task-1", f2.ledger.refunds[0].TaskID)
		stored, ferr := f2.store.FindByID("task-1")
		require.NoError(t, ferr)
		assert.Equal(t, domain.StatusEvaluated, stored.Status)
	})
}

func TestStartWork(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusPaid)

	started, err := f.svc.StartWork(ctx, &StartWorkRequest{Actor: specialist, TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, started.Status)

	t.Run("unbound specialist is forbidden", func(t *testing.T) {
		f.seed("task-2", domain.StatusPaid)
		other := Actor{UserID: "spec-9", Role: identity.RoleSpecialist}
		_, err := f.svc.StartWork(ctx, &StartWorkRequest{Actor: other, TaskID: "task-2"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no start edge before payment", func(t *testing.T) {
		f2 := setup(t)
		f2.seed("task-1", domain.StatusEvaluated)
		_, err := f2.svc.StartWork(ctx, &StartWorkRequest{Actor: specialist, TaskID: "task-1"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusInProgress)

	done, settlement, err := f.svc.Complete(ctx, &CompleteRequest{Actor: specialist, TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, int64(37500), settlement.Payout.AmountCents)

	require.Len(t, f.ledger.settles, 1)
	assert.Equal(t, "task-1", f.ledger.settles[0].TaskID)
	assert.Equal(t, specialist.UserID, f.ledger.settles[0].SpecialistID)

	t.Run("only the bound specialist completes", func(t *testing.T) {
		f.seed("task-2", domain.StatusInProgress)
		_, _, err := f.svc.Complete(ctx, &CompleteRequest{Actor: client, TaskID: "task-2"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("settlement failure reverts the status", func(t *testing.T) {
		f2 := setup(t)
		f2.seed("task-1", domain.StatusInProgress)
		f2.ledger.settleErr = billing.ErrNoCaptureFound

		_, _, err := f2.svc.Complete(ctx, &CompleteRequest{Actor: specialist, TaskID: "task-1"})
		assert.ErrorIs(t, err, billing.ErrNoCaptureFound)

		stored, ferr := f2.store.FindByID("task-1")
		require.NoError(t, ferr)
		assert.Equal(t, domain.StatusInProgress, stored.Status)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel before capture needs no refund", func(t *testing.T) {
		f := setup(t)
		f.seed("task-1", domain.StatusEvaluating)

		cancelled, refunded, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.False(t, refunded)
		assert.Empty(t, f.ledger.refunds)
	})

	t.Run("cancel after capture refunds first", func(t *testing.T) {
		f := setup(t)
		f.seed("task-1", domain.StatusInProgress)

		cancelled, refunded, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-1", Reason: "no longer needed"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.True(t, refunded)
		require.Len(t, f.ledger.refunds, 1)
		assert.Equal(t, "no longer needed", f.ledger.refunds[0].Reason)
	})

	t.Run("refund failure leaves the status untouched", func(t *testing.T) {
		f := setup(t)
		f.seed("task-1", domain.StatusPaid)
		f.ledger.refundErr = errors.New("ledger unavailable")

		_, _, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-1"})
		require.Error(t, err)

		stored, ferr := f.store.FindByID("task-1")
		require.NoError(t, ferr)
		assert.Equal(t, domain.StatusPaid, stored.Status)
	})

	t.Run("a prior refund does not block the cancel", func(t *testing.T) {
		f := setup(t)
		f.seed("task-1", domain.StatusPaid)
		f.ledger.refundErr = billing.ErrAlreadyRefunded

		cancelled, refunded, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.True(t, refunded)
	})

	t.Run("terminal statuses cannot cancel", func(t *testing.T) {
		f := setup(t)
		f.seed("task-done", domain.StatusCompleted)
		_, _, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-done"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("repeat cancel reports the earlier refund", func(t *testing.T) {
		f := setup(t)
		f.seed("task-gone", domain.StatusCancelled)
		f.ledger.refundErr = billing.ErrAlreadyRefunded

		_, _, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-gone"})
		assert.ErrorIs(t, err, billing.ErrAlreadyRefunded)
	})

	t.Run("repeat cancel of a never-funded task is invalid", func(t *testing.T) {
		f := setup(t)
		f.seed("task-gone", domain.StatusCancelled)
		f.ledger.refundErr = billing.ErrNoCaptureFound

		_, _, err := f.svc.Cancel(ctx, &CancelRequest{Actor: client, TaskID: "task-gone"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("specialists cannot cancel", func(t *testing.T) {
		f := setup(t)
		f.seed("task-1", domain.StatusPaid)
		_, _, err := f.svc.Cancel(ctx, &CancelRequest{Actor: specialist, TaskID: "task-1"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestReject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed("task-1", domain.StatusEvaluating)

	rejected, err := f.svc.Reject(ctx, &RejectRequest{Actor: admin, TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	t.Run("clients cannot reject", func(t *testing.T) {
		f.seed("task-2", domain.StatusEvaluating)
		_, err := f.svc.Reject(ctx, &RejectRequest{Actor: client, TaskID: "task-2"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no reject edge past payment", func(t *testing.T) {
		f.seed("task-3", domain.StatusPaid)
		_, err := f.svc.Reject(ctx, &RejectRequest{Actor: admin, TaskID: "task-3"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}
