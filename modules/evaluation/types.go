package evaluation

import (
	"context"
	"time"

	domain "github.com/WS24/ws24dev-sub001/domain/evaluation"
)

// SubmitRequest is the request for submitting a proposal. TotalCost is
// computed server-side from the hours and rate.
type SubmitRequest struct {
	TaskID         string  `json:"task_id"`
	SpecialistID   string  `json:"specialist_id"`
	EstimatedHours float64 `json:"estimated_hours"`
	RateCents      int64   `json:"rate_cents"`
	Notes          string  `json:"notes,omitempty"`
}

// AcceptRequest is the request for accepting a proposal.
type AcceptRequest struct {
	EvaluationID string `json:"evaluation_id"`
}

// GetRequest is the request for a single evaluation.
type GetRequest struct {
	EvaluationID string `json:"evaluation_id"`
}

// GetAcceptedRequest is the request for a task's accepted evaluation.
type GetAcceptedRequest struct {
	TaskID string `json:"task_id"`
}

// ListRequest is the request for a task's evaluation history.
type ListRequest struct {
	TaskID string `json:"task_id"`
}

// ListResponse lists a task's evaluations, newest first.
type ListResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
	Total       int                  `json:"total"`
}

// EvaluationResponse is the wire representation of an evaluation.
type EvaluationResponse struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	SpecialistID   string    `json:"specialist_id"`
	EstimatedHours float64   `json:"estimated_hours"`
	RateCents      int64     `json:"rate_cents"`
	TotalCents     int64     `json:"total_cents"`
	Notes          string    `json:"notes,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// EvaluationPort is the contract other modules use to reach the store.
type EvaluationPort interface {
	Submit(ctx context.Context, req *SubmitRequest) (*EvaluationResponse, error)
	Accept(ctx context.Context, evaluationID string) (*EvaluationResponse, error)
	Get(ctx context.Context, evaluationID string) (*EvaluationResponse, error)
	GetAccepted(ctx context.Context, taskID string) (*EvaluationResponse, error)
	ListForTask(ctx context.Context, taskID string) (*ListResponse, error)
}

// toEvaluationResponse converts an evaluation to its wire representation.
func toEvaluationResponse(eval *domain.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:             eval.ID,
		TaskID:         eval.TaskID,
		SpecialistID:   eval.SpecialistID,
		EstimatedHours: eval.EstimatedHours,
		RateCents:      eval.HourlyRate.Cents(),
		TotalCents:     eval.TotalCost.Cents(),
		Notes:          eval.Notes,
		Status:         string(eval.Status),
		CreatedAt:      eval.CreatedAt,
	}
}
