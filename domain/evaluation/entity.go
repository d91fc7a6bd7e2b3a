// Package evaluation provides the domain entity for a specialist's cost/time
// proposal on a task.
package evaluation

import (
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
)

// Status tracks whether a proposal is still the active one for its task.
type Status string

const (
	// StatusActive is the current proposal for the task. At most one
	// evaluation per task is active.
	StatusActive Status = "active"
	// StatusSuperseded marks a proposal replaced by a newer submission.
	StatusSuperseded Status = "superseded"
	// StatusAccepted marks the proposal the client (or admin) accepted.
	// Accepted evaluations are immutable.
	StatusAccepted Status = "accepted"
)

// Evaluation is a specialist's proposal. TotalCost is always recomputed
// server-side as EstimatedHours x HourlyRate; client-supplied totals are
// never trusted.
type Evaluation struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	TaskID         string      `gorm:"size:36;not null;index" json:"task_id"`
	SpecialistID   string      `gorm:"size:36;not null;index" json:"specialist_id"`
	EstimatedHours float64     `gorm:"not null" json:"estimated_hours"`
	HourlyRate     money.Money `gorm:"not null" json:"hourly_rate"`
	TotalCost      money.Money `gorm:"not null" json:"total_cost"`
	Notes          string      `gorm:"size:1000" json:"notes,omitempty"`
	Status         Status      `gorm:"size:20;not null;index" json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the table name for evaluations.
func (Evaluation) TableName() string {
	return "evaluations"
}
