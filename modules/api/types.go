package api

import "time"

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check envelope.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RegisterBody is the registration payload.
type RegisterBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

// LoginBody is the login payload.
type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshBody is the token rotation payload.
type RefreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskBody is the task creation payload.
type CreateTaskBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// SubmitEvaluationBody is the pricing proposal payload.
type SubmitEvaluationBody struct {
	EstimatedHours float64 `json:"estimated_hours"`
	RateCents      int64   `json:"rate_cents"`
	Notes          string  `json:"notes,omitempty"`
}

// CancelBody is the cancellation payload.
type CancelBody struct {
	Reason string `json:"reason,omitempty"`
}

// AmountBody carries a money amount in minor units.
type AmountBody struct {
	AmountCents int64 `json:"amount_cents"`
}

// IssueInvoiceBody is the invoice issuance payload.
type IssueInvoiceBody struct {
	TransactionID string `json:"transaction_id"`
}
