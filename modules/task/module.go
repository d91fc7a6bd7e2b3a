// Package task drives the lifecycle state machine for marketplace tasks and
// coordinates the evaluation store and the billing ledger around it.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
	domain "github.com/WS24/ws24dev-sub001/domain/task"
	"github.com/WS24/ws24dev-sub001/events"
	"github.com/WS24/ws24dev-sub001/modules/evaluation"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides the task lifecycle services via GORM + SQLite. It depends
// on the ledger for money effects and on the evaluation store for proposals.
type Module struct {
	db             *gorm.DB
	service        *Service
	eventBus       mono.EventBus
	ledgerPort     ledger.LedgerPort
	evaluationPort evaluation.EvaluationPort
	dbPath         string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new task module.
func NewModule() *Module {
	dbPath := os.Getenv("TASK_DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"ledger", "evaluation"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "ledger":
		m.ledgerPort = ledger.NewLedgerAdapter(container)
	case "evaluation":
		m.evaluationPort = evaluation.NewEvaluationAdapter(container)
	}
}

// SetEventBus receives the application event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskEvaluatedV1.ToBase(),
		events.TaskPaidV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskCancelledV1.ToBase(),
	}
}

// RegisterServices registers the task lifecycle request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	type handlerReg struct {
		name string
		fn   func(mono.ServiceContainer) error
	}
	regs := []handlerReg{
		{"create", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "create", json.Unmarshal, json.Marshal, m.handleCreate)
		}},
		{"get", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get", json.Unmarshal, json.Marshal, m.handleGet)
		}},
		{"list", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "list", json.Unmarshal, json.Marshal, m.handleList)
		}},
		{"submit-evaluation", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "submit-evaluation", json.Unmarshal, json.Marshal, m.handleSubmitEvaluation)
		}},
		{"accept-evaluation", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "accept-evaluation", json.Unmarshal, json.Marshal, m.handleAcceptEvaluation)
		}},
		{"capture-payment", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "capture-payment", json.Unmarshal, json.Marshal, m.handleCapturePayment)
		}},
		{"start-work", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "start-work", json.Unmarshal, json.Marshal, m.handleStartWork)
		}},
		{"complete", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "complete", json.Unmarshal, json.Marshal, m.handleComplete)
		}},
		{"cancel", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "cancel", json.Unmarshal, json.Marshal, m.handleCancel)
		}},
		{"reject", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "reject", json.Unmarshal, json.Marshal, m.handleReject)
		}},
	}
	for _, reg := range regs {
		if err := reg.fn(container); err != nil {
			return fmt.Errorf("failed to register %s service: %w", reg.name, err)
		}
	}

	log.Printf("[task] Registered services: create, get, list, submit-evaluation, accept-evaluation, capture-payment, start-work, complete, cancel, reject")
	return nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	if m.ledgerPort == nil {
		return fmt.Errorf("ledger dependency not set")
	}
	if m.evaluationPort == nil {
		return fmt.Errorf("evaluation dependency not set")
	}

	log.Printf("[task] Connecting to SQLite database: %s", m.dbPath)
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	repo := NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.service = NewService(repo, m.ledgerPort, m.evaluationPort)

	log.Println("[task] Module started (depends on: ledger, evaluation)")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health performs a health check on the task module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

func (m *Module) handleCreate(ctx context.Context, req CreateRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Create(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

func (m *Module) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	tasks, err := m.service.List(ctx, ListFilter{
		ClientID:     req.ClientID,
		SpecialistID: req.SpecialistID,
		Status:       domain.Status(req.Status),
		Category:     req.Category,
	})
	if err != nil {
		return ListResponse{}, err
	}
	resp := ListResponse{Tasks: make([]TaskResponse, 0, len(tasks)), Total: len(tasks)}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return resp, nil
}

func (m *Module) handleSubmitEvaluation(ctx context.Context, req SubmitEvaluationRequest, _ *mono.Msg) (SubmitEvaluationResponse, error) {
	t, eval, err := m.service.SubmitEvaluation(ctx, &req)
	if err != nil {
		return SubmitEvaluationResponse{}, err
	}
	return SubmitEvaluationResponse{Task: toTaskResponse(t), Evaluation: *eval}, nil
}

func (m *Module) handleAcceptEvaluation(ctx context.Context, req AcceptEvaluationRequest, _ *mono.Msg) (TaskResponse, error) {
	t, eval, err := m.service.AcceptEvaluation(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskEvaluatedEvent{
			TaskID:       t.ID,
			ClientID:     t.ClientID,
			SpecialistID: t.SpecialistID,
			EvaluationID: t.EvaluationID,
			TotalCost:    money.FromCents(eval.TotalCents),
			EvaluatedAt:  time.Now(),
		}
		if err := events.TaskEvaluatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskEvaluated event for task %s: %v", t.ID, err)
		}
	}
	return toTaskResponse(t), nil
}

func (m *Module) handleCapturePayment(ctx context.Context, req CapturePaymentRequest, _ *mono.Msg) (TaskResponse, error) {
	t, entry, err := m.service.CapturePayment(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskPaidEvent{
			TaskID:       t.ID,
			ClientID:     t.ClientID,
			SpecialistID: t.SpecialistID,
			Amount:       money.FromCents(entry.AmountCents),
			PaidAt:       time.Now(),
		}
		if err := events.TaskPaidV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskPaid event for task %s: %v", t.ID, err)
		}
	}
	return toTaskResponse(t), nil
}

func (m *Module) handleStartWork(ctx context.Context, req StartWorkRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.StartWork(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

func (m *Module) handleComplete(ctx context.Context, req CompleteRequest, _ *mono.Msg) (CompleteResponse, error) {
	t, settlement, err := m.service.Complete(ctx, &req)
	if err != nil {
		return CompleteResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskCompletedEvent{
			TaskID:       t.ID,
			ClientID:     t.ClientID,
			SpecialistID: t.SpecialistID,
			CompletedAt:  time.Now(),
		}
		if err := events.TaskCompletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCompleted event for task %s: %v", t.ID, err)
		}
	}

	resp := CompleteResponse{Task: toTaskResponse(t), PayoutCents: settlement.Payout.AmountCents}
	if settlement.Fee != nil {
		resp.FeeCents = settlement.Fee.AmountCents
	}
	return resp, nil
}

func (m *Module) handleCancel(ctx context.Context, req CancelRequest, _ *mono.Msg) (CancelResponse, error) {
	t, refunded, err := m.service.Cancel(ctx, &req)
	if err != nil {
		return CancelResponse{}, err
	}

	if m.eventBus != nil {
		event := events.TaskCancelledEvent{
			TaskID:      t.ID,
			ClientID:    t.ClientID,
			CancelledBy: req.Actor.UserID,
			Refunded:    refunded,
			CancelledAt: time.Now(),
		}
		if err := events.TaskCancelledV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskCancelled event for task %s: %v", t.ID, err)
		}
	}
	return CancelResponse{Task: toTaskResponse(t), Refunded: refunded}, nil
}

func (m *Module) handleReject(ctx context.Context, req RejectRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Reject(ctx, &req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}
