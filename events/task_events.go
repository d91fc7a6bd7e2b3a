// Package events defines the typed lifecycle events the engine emits after a
// transition commits. Delivery is fire-and-forget; consumers can never gate
// or fail a transition.
package events

import (
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskEvaluatedEvent is emitted when a client or admin accepts an evaluation
// and the task binds its specialist.
type TaskEvaluatedEvent struct {
	TaskID       string      `json:"task_id"`
	ClientID     string      `json:"client_id"`
	SpecialistID string      `json:"specialist_id"`
	EvaluationID string      `json:"evaluation_id"`
	TotalCost    money.Money `json:"total_cost"`
	EvaluatedAt  time.Time   `json:"evaluated_at"`
}

// TaskEvaluatedV1 is the typed event definition for evaluation acceptance.
// Subject: events.task.v1.task-evaluated
var TaskEvaluatedV1 = helper.EventDefinition[TaskEvaluatedEvent](
	"task", "TaskEvaluated", "v1",
)

// TaskPaidEvent is emitted when the client's funds are escrowed and the task
// advances to paid.
type TaskPaidEvent struct {
	TaskID       string      `json:"task_id"`
	ClientID     string      `json:"client_id"`
	SpecialistID string      `json:"specialist_id"`
	Amount       money.Money `json:"amount"`
	PaidAt       time.Time   `json:"paid_at"`
}

// TaskPaidV1 is the typed event definition for payment capture on a task.
// Subject: events.task.v1.task-paid
var TaskPaidV1 = helper.EventDefinition[TaskPaidEvent](
	"task", "TaskPaid", "v1",
)

// TaskCompletedEvent is emitted when the specialist marks the work done and
// the escrowed payment settles.
type TaskCompletedEvent struct {
	TaskID       string    `json:"task_id"`
	ClientID     string    `json:"client_id"`
	SpecialistID string    `json:"specialist_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// TaskCancelledEvent is emitted when a task is cancelled, whether or not a
// capture was refunded.
type TaskCancelledEvent struct {
	TaskID      string    `json:"task_id"`
	ClientID    string    `json:"client_id"`
	CancelledBy string    `json:"cancelled_by"`
	Refunded    bool      `json:"refunded"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// TaskCancelledV1 is the typed event definition for task cancellation.
// Subject: events.task.v1.task-cancelled
var TaskCancelledV1 = helper.EventDefinition[TaskCancelledEvent](
	"task", "TaskCancelled", "v1",
)
