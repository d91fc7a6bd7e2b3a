package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps the task module's ServiceContainer for type-safe
// cross-module calls. It implements TaskPort.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates an adapter for the task lifecycle services.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func call[T any](ctx context.Context, a *taskAdapter, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *taskAdapter) Create(ctx context.Context, req *CreateRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) Get(ctx context.Context, taskID string) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "get", &GetRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	var resp ListResponse
	if err := call(ctx, a, "list", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*SubmitEvaluationResponse, error) {
	var resp SubmitEvaluationResponse
	if err := call(ctx, a, "submit-evaluation", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) AcceptEvaluation(ctx context.Context, req *AcceptEvaluationRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "accept-evaluation", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) CapturePayment(ctx context.Context, req *CapturePaymentRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "capture-payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) StartWork(ctx context.Context, req *StartWorkRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "start-work", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error) {
	var resp CompleteResponse
	if err := call(ctx, a, "complete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error) {
	var resp CancelResponse
	if err := call(ctx, a, "cancel", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *taskAdapter) Reject(ctx context.Context, req *RejectRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "reject", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
