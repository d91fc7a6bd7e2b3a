package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// identityAdapter wraps the identity module's ServiceContainer for type-safe
// cross-module calls. It implements IdentityPort.
type identityAdapter struct {
	container mono.ServiceContainer
}

// NewIdentityAdapter creates an adapter for the identity services.
func NewIdentityAdapter(container mono.ServiceContainer) IdentityPort {
	if container == nil {
		panic("identity adapter requires non-nil ServiceContainer")
	}
	return &identityAdapter{container: container}
}

func call[T any](ctx context.Context, a *identityAdapter, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *identityAdapter) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := call(ctx, a, "register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *identityAdapter) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := call(ctx, a, "login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *identityAdapter) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := call(ctx, a, "refresh", &RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *identityAdapter) ValidateToken(ctx context.Context, token string) (*ValidateTokenResponse, error) {
	var resp ValidateTokenResponse
	if err := call(ctx, a, "validate-token", &ValidateTokenRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *identityAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	var resp UserResponse
	if err := call(ctx, a, "get-user", &GetUserRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
