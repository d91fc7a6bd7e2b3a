// Package notification fans lifecycle and billing events out to users. It is
// a pure consumer: nothing in the engine waits on it, and a failed delivery
// never affects a transition.
package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/WS24/ws24dev-sub001/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// Record is one delivered notification, kept in the in-memory feed.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Kind      string    `json:"kind"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Module consumes the engine's events, records them and pushes them to
// WebSocket subscribers.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc

	mu      sync.RWMutex
	records []Record
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new notification module.
func NewModule() *Module {
	return &Module{hub: NewHub()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notification"
}

// Hub returns the WebSocket hub for the API module to attach connections to.
func (m *Module) Hub() *Hub {
	return m.hub
}

// RegisterEventConsumers subscribes to every event the engine emits.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskEvaluatedV1, m.handleTaskEvaluated, m); err != nil {
		return fmt.Errorf("failed to register TaskEvaluated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskPaidV1, m.handleTaskPaid, m); err != nil {
		return fmt.Errorf("failed to register TaskPaid consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCancelledV1, m.handleTaskCancelled, m); err != nil {
		return fmt.Errorf("failed to register TaskCancelled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PaymentCapturedV1, m.handlePaymentCaptured, m); err != nil {
		return fmt.Errorf("failed to register PaymentCaptured consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PayoutIssuedV1, m.handlePayoutIssued, m); err != nil {
		return fmt.Errorf("failed to register PayoutIssued consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PaymentRefundedV1, m.handlePaymentRefunded, m); err != nil {
		return fmt.Errorf("failed to register PaymentRefunded consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.InvoiceIssuedV1, m.handleInvoiceIssued, m); err != nil {
		return fmt.Errorf("failed to register InvoiceIssued consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskEvaluated, TaskPaid, TaskCompleted, TaskCancelled, PaymentCaptured, PayoutIssued, PaymentRefunded, InvoiceIssued")
	return nil
}

// Start runs the WebSocket hub.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[notification] Module started")
	return nil
}

// Stop shuts down the hub and its connections.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Println("[notification] Module stopped")
	return nil
}

// Health reports the hub's connection count.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Feed returns the notifications recorded for a user, newest last. An empty
// userID returns the whole feed.
func (m *Module) Feed(userID string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if userID == "" {
		out := make([]Record, len(m.records))
		copy(out, m.records)
		return out
	}
	var out []Record
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (m *Module) handleTaskEvaluated(_ context.Context, event events.TaskEvaluatedEvent, _ *mono.Msg) error {
	m.notify(event.ClientID, "task_evaluated", event.TaskID,
		fmt.Sprintf("Evaluation accepted for task %s: total %s", event.TaskID, event.TotalCost))
	m.notify(event.SpecialistID, "task_evaluated", event.TaskID,
		fmt.Sprintf("Your evaluation for task %s was accepted", event.TaskID))
	return nil
}

func (m *Module) handleTaskPaid(_ context.Context, event events.TaskPaidEvent, _ *mono.Msg) error {
	m.notify(event.SpecialistID, "task_paid", event.TaskID,
		fmt.Sprintf("Task %s is funded (%s in escrow), work can start", event.TaskID, event.Amount))
	return nil
}

func (m *Module) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.notify(event.ClientID, "task_completed", event.TaskID,
		fmt.Sprintf("Task %s has been completed", event.TaskID))
	return nil
}

func (m *Module) handleTaskCancelled(_ context.Context, event events.TaskCancelledEvent, _ *mono.Msg) error {
	message := fmt.Sprintf("Task %s was cancelled", event.TaskID)
	if event.Refunded {
		message += ", escrowed payment refunded"
	}
	m.notify(event.ClientID, "task_cancelled", event.TaskID, message)
	return nil
}

func (m *Module) handlePaymentCaptured(_ context.Context, event events.PaymentCapturedEvent, _ *mono.Msg) error {
	m.notify(event.ClientID, "payment_captured", event.TaskID,
		fmt.Sprintf("%s escrowed for task %s", event.Amount, event.TaskID))
	return nil
}

func (m *Module) handlePayoutIssued(_ context.Context, event events.PayoutIssuedEvent, _ *mono.Msg) error {
	m.notify(event.SpecialistID, "payout_issued", event.TaskID,
		fmt.Sprintf("Payout of %s issued for task %s", event.Amount, event.TaskID))
	return nil
}

func (m *Module) handlePaymentRefunded(_ context.Context, event events.PaymentRefundedEvent, _ *mono.Msg) error {
	m.notify(event.ClientID, "payment_refunded", event.TaskID,
		fmt.Sprintf("%s refunded for task %s", event.Amount, event.TaskID))
	return nil
}

func (m *Module) handleInvoiceIssued(_ context.Context, event events.InvoiceIssuedEvent, _ *mono.Msg) error {
	m.notify(event.PayerID, "invoice_issued", event.TaskID,
		fmt.Sprintf("Invoice #%d issued over %s", event.InvoiceNumber, event.Amount))
	return nil
}

func (m *Module) notify(userID, kind, taskID, message string) {
	record := Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		TaskID:    taskID,
		Message:   message,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()

	log.Printf("[notification] %s: %s", kind, message)
	m.hub.Notify(userID, record)
}
