package evaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// evaluationAdapter wraps the evaluation module's ServiceContainer for
// type-safe cross-module calls. It implements EvaluationPort.
type evaluationAdapter struct {
	container mono.ServiceContainer
}

// NewEvaluationAdapter creates an adapter for the evaluation services.
func NewEvaluationAdapter(container mono.ServiceContainer) EvaluationPort {
	if container == nil {
		panic("evaluation adapter requires non-nil ServiceContainer")
	}
	return &evaluationAdapter{container: container}
}

func call[T any](ctx context.Context, a *evaluationAdapter, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *evaluationAdapter) Submit(ctx context.Context, req *SubmitRequest) (*EvaluationResponse, error) {
	var resp EvaluationResponse
	if err := call(ctx, a, "submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *evaluationAdapter) Accept(ctx context.Context, evaluationID string) (*EvaluationResponse, error) {
	var resp EvaluationResponse
	if err := call(ctx, a, "accept", &AcceptRequest{EvaluationID: evaluationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *evaluationAdapter) Get(ctx context.Context, evaluationID string) (*EvaluationResponse, error) {
	var resp EvaluationResponse
	if err := call(ctx, a, "get", &GetRequest{EvaluationID: evaluationID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *evaluationAdapter) GetAccepted(ctx context.Context, taskID string) (*EvaluationResponse, error) {
	var resp EvaluationResponse
	if err := call(ctx, a, "get-accepted", &GetAcceptedRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *evaluationAdapter) ListForTask(ctx context.Context, taskID string) (*ListResponse, error) {
	var resp ListResponse
	if err := call(ctx, a, "list-for-task", &ListRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
