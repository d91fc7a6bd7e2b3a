package task

import (
	"context"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/identity"
	domain "github.com/WS24/ws24dev-sub001/domain/task"
	"github.com/WS24/ws24dev-sub001/modules/evaluation"
)

// Actor identifies the caller of a lifecycle operation. The API layer fills
// it from the verified token; the engine trusts the pair as-is.
type Actor struct {
	UserID string        `json:"user_id"`
	Role   identity.Role `json:"role"`
}

// CreateRequest is the request for creating a task.
type CreateRequest struct {
	Actor       Actor      `json:"actor"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// GetRequest is the request for a single task.
type GetRequest struct {
	TaskID string `json:"task_id"`
}

// ListRequest is the request for a filtered task listing.
type ListRequest struct {
	ClientID     string `json:"client_id,omitempty"`
	SpecialistID string `json:"specialist_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Category     string `json:"category,omitempty"`
}

// ListResponse lists tasks, newest first.
type ListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// SubmitEvaluationRequest is the request for a specialist pricing proposal.
type SubmitEvaluationRequest struct {
	Actor          Actor   `json:"actor"`
	TaskID         string  `json:"task_id"`
	EstimatedHours float64 `json:"estimated_hours"`
	RateCents      int64   `json:"rate_cents"`
	Notes          string  `json:"notes,omitempty"`
}

// SubmitEvaluationResponse carries the stored proposal and the task it moved.
type SubmitEvaluationResponse struct {
	Task       TaskResponse                  `json:"task"`
	Evaluation evaluation.EvaluationResponse `json:"evaluation"`
}

// AcceptEvaluationRequest is the request for accepting a proposal, binding
// its specialist to the task.
type AcceptEvaluationRequest struct {
	Actor        Actor  `json:"actor"`
	EvaluationID string `json:"evaluation_id"`
}

// CapturePaymentRequest is the request for escrowing the accepted cost.
type CapturePaymentRequest struct {
	Actor  Actor  `json:"actor"`
	TaskID string `json:"task_id"`
}

// StartWorkRequest is the request for the bound specialist to begin work.
type StartWorkRequest struct {
	Actor  Actor  `json:"actor"`
	TaskID string `json:"task_id"`
}

// CompleteRequest is the request for finishing work and settling payment.
type CompleteRequest struct {
	Actor  Actor  `json:"actor"`
	TaskID string `json:"task_id"`
}

// CompleteResponse carries the completed task and the settlement amounts.
type CompleteResponse struct {
	Task        TaskResponse `json:"task"`
	PayoutCents int64        `json:"payout_cents"`
	FeeCents    int64        `json:"fee_cents"`
}

// CancelRequest is the request for terminating a non-terminal task.
type CancelRequest struct {
	Actor  Actor  `json:"actor"`
	TaskID string `json:"task_id"`
	Reason string `json:"reason,omitempty"`
}

// CancelResponse carries the cancelled task and whether a capture was
// refunded as part of the cancellation.
type CancelResponse struct {
	Task     TaskResponse `json:"task"`
	Refunded bool         `json:"refunded"`
}

// RejectRequest is the request for the admin branch out of evaluation.
type RejectRequest struct {
	Actor  Actor  `json:"actor"`
	TaskID string `json:"task_id"`
	Reason string `json:"reason,omitempty"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	SpecialistID string     `json:"specialist_id,omitempty"`
	EvaluationID string     `json:"evaluation_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TaskPort is the contract other modules use to drive the task lifecycle.
type TaskPort interface {
	Create(ctx context.Context, req *CreateRequest) (*TaskResponse, error)
	Get(ctx context.Context, taskID string) (*TaskResponse, error)
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
	SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*SubmitEvaluationResponse, error)
	AcceptEvaluation(ctx context.Context, req *AcceptEvaluationRequest) (*TaskResponse, error)
	CapturePayment(ctx context.Context, req *CapturePaymentRequest) (*TaskResponse, error)
	StartWork(ctx context.Context, req *StartWorkRequest) (*TaskResponse, error)
	Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error)
	Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error)
	Reject(ctx context.Context, req *RejectRequest) (*TaskResponse, error)
}

// toTaskResponse converts a task to its wire representation.
func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		ClientID:     t.ClientID,
		SpecialistID: t.SpecialistID,
		EvaluationID: t.EvaluationID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		Deadline:     t.Deadline,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
