// Package task provides the core domain entity for a unit of requested work
// and the lifecycle state machine that governs it.
package task

import "time"

// Priority is the client-assigned urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the lifecycle state of a task. Transitions between statuses are
// validated against the table in transitions.go; tasks are never physically
// deleted, StatusCancelled marks logical termination.
type Status string

const (
	StatusCreated    Status = "created"
	StatusEvaluating Status = "evaluating"
	StatusEvaluated  Status = "evaluated"
	StatusPaid       Status = "paid"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Task is a unit of requested work. SpecialistID and EvaluationID are empty
// until an evaluation is accepted; once status reaches evaluated, exactly one
// accepted evaluation is bound.
type Task struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	ClientID     string     `gorm:"size:36;not null;index" json:"client_id"`
	SpecialistID string     `gorm:"size:36;index" json:"specialist_id,omitempty"`
	EvaluationID string     `gorm:"size:36" json:"evaluation_id,omitempty"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"size:2000" json:"description"`
	Category     string     `gorm:"size:100;index" json:"category"`
	Priority     Priority   `gorm:"size:10;not null" json:"priority"`
	Status       Status     `gorm:"size:20;not null;index" json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for tasks.
func (Task) TableName() string {
	return "tasks"
}
