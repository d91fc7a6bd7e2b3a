package api

import (
	"context"
	"log"
	"strconv"

	domain "github.com/WS24/ws24dev-sub001/domain/identity"
	"github.com/WS24/ws24dev-sub001/modules/identity"
	"github.com/WS24/ws24dev-sub001/modules/invoice"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/WS24/ws24dev-sub001/modules/notification"
	"github.com/WS24/ws24dev-sub001/modules/task"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultListLimit = 100

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	api := m.app.Group("/api/v1")

	// Public authentication surface.
	api.Post("/auth/register", m.register)
	api.Post("/auth/login", m.login)
	api.Post("/auth/refresh", m.refresh)

	// Everything below requires a valid access token.
	authed := api.Group("", AuthMiddleware(m.identityPort))

	authed.Get("/me", m.me)

	authed.Post("/tasks", m.createTask)
	authed.Get("/tasks", m.listTasks)
	authed.Get("/tasks/:id", m.getTask)
	authed.Post("/tasks/:id/evaluations", m.submitEvaluation)
	authed.Get("/tasks/:id/evaluations", m.listEvaluations)
	authed.Post("/evaluations/:id/accept", m.acceptEvaluation)
	authed.Post("/tasks/:id/pay", m.capturePayment)
	authed.Post("/tasks/:id/start", m.startWork)
	authed.Post("/tasks/:id/complete", m.completeTask)
	authed.Post("/tasks/:id/cancel", m.cancelTask)
	authed.Post("/tasks/:id/reject", m.rejectTask)

	authed.Get("/balance", m.balance)
	authed.Post("/balance/topup", m.topup)
	authed.Post("/balance/withdraw", m.withdraw)
	authed.Get("/statement", m.statement)

	authed.Post("/invoices", m.issueInvoice)
	authed.Get("/invoices", m.listInvoices)
	authed.Get("/invoices/:id", m.getInvoice)
	authed.Post("/invoices/:id/pay", m.markInvoicePaid)
	authed.Post("/invoices/:id/cancel", m.cancelInvoice)

	// WebSocket notification stream. Browsers cannot set headers on WS
	// upgrades, so the token travels as a query parameter.
	m.app.Use("/ws/notifications", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws/notifications", websocket.New(m.handleNotificationSocket))
}

func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

func (m *Module) register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := m.identityPort.Register(c.UserContext(), &identity.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Role:     body.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (m *Module) login(c *fiber.Ctx) error {
	var body LoginBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.identityPort.Login(c.UserContext(), &identity.LoginRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) refresh(c *fiber.Ctx) error {
	var body RefreshBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.identityPort.Refresh(c.UserContext(), body.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) me(c *fiber.Ctx) error {
	user, err := m.identityPort.GetUser(c.UserContext(), caller(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (m *Module) createTask(c *fiber.Ctx) error {
	var body CreateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := m.taskPort.Create(c.UserContext(), &task.CreateRequest{
		Actor:       actor(c),
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		Priority:    body.Priority,
		Deadline:    body.Deadline,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// listTasks scopes the listing to the caller unless the caller is an admin:
// clients see their own tasks, specialists the ones bound to them.
func (m *Module) listTasks(c *fiber.Ctx) error {
	req := task.ListRequest{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}
	switch ident := caller(c); ident.Role {
	case domain.RoleAdmin:
		req.ClientID = c.Query("client_id")
		req.SpecialistID = c.Query("specialist_id")
	case domain.RoleSpecialist:
		req.SpecialistID = ident.UserID
	default:
		req.ClientID = ident.UserID
	}

	resp, err := m.taskPort.List(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) getTask(c *fiber.Ctx) error {
	resp, err := m.taskPort.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) submitEvaluation(c *fiber.Ctx) error {
	var body SubmitEvaluationBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.taskPort.SubmitEvaluation(c.UserContext(), &task.SubmitEvaluationRequest{
		Actor:          actor(c),
		TaskID:         c.Params("id"),
		EstimatedHours: body.EstimatedHours,
		RateCents:      body.RateCents,
		Notes:          body.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (m *Module) listEvaluations(c *fiber.Ctx) error {
	resp, err := m.evaluationPort.ListForTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) acceptEvaluation(c *fiber.Ctx) error {
	resp, err := m.taskPort.AcceptEvaluation(c.UserContext(), &task.AcceptEvaluationRequest{
		Actor:        actor(c),
		EvaluationID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) capturePayment(c *fiber.Ctx) error {
	resp, err := m.taskPort.CapturePayment(c.UserContext(), &task.CapturePaymentRequest{
		Actor:  actor(c),
		TaskID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) startWork(c *fiber.Ctx) error {
	resp, err := m.taskPort.StartWork(c.UserContext(), &task.StartWorkRequest{
		Actor:  actor(c),
		TaskID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) completeTask(c *fiber.Ctx) error {
	resp, err := m.taskPort.Complete(c.UserContext(), &task.CompleteRequest{
		Actor:  actor(c),
		TaskID: c.Params("id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) cancelTask(c *fiber.Ctx) error {
	var body CancelBody
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.taskPort.Cancel(c.UserContext(), &task.CancelRequest{
		Actor:  actor(c),
		TaskID: c.Params("id"),
		Reason: body.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) rejectTask(c *fiber.Ctx) error {
	var body CancelBody
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	resp, err := m.taskPort.Reject(c.UserContext(), &task.RejectRequest{
		Actor:  actor(c),
		TaskID: c.Params("id"),
		Reason: body.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) balance(c *fiber.Ctx) error {
	resp, err := m.ledgerPort.BalanceOf(c.UserContext(), caller(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) topup(c *fiber.Ctx) error {
	var body AmountBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	entry, err := m.ledgerPort.RecordTopup(c.UserContext(), &ledger.TopupRequest{
		UserID:      caller(c).UserID,
		AmountCents: body.AmountCents,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (m *Module) withdraw(c *fiber.Ctx) error {
	var body AmountBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	entry, err := m.ledgerPort.Withdraw(c.UserContext(), &ledger.WithdrawRequest{
		UserID:      caller(c).UserID,
		AmountCents: body.AmountCents,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (m *Module) statement(c *fiber.Ctx) error {
	limit := defaultListLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	resp, err := m.ledgerPort.Statement(c.UserContext(), &ledger.StatementRequest{
		UserID: caller(c).UserID,
		Limit:  limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) issueInvoice(c *fiber.Ctx) error {
	var body IssueInvoiceBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.TransactionID == "" {
		return badRequest(c, "transaction_id is required")
	}

	resp, err := m.invoicePort.Issue(c.UserContext(), &invoice.IssueRequest{
		TransactionID: body.TransactionID,
		IssuerID:      caller(c).UserID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (m *Module) listInvoices(c *fiber.Ctx) error {
	ident := caller(c)
	payerID := ident.UserID
	if ident.Role == domain.RoleAdmin && c.Query("payer_id") != "" {
		payerID = c.Query("payer_id")
	}

	resp, err := m.invoicePort.ListForPayer(c.UserContext(), &invoice.ListRequest{PayerID: payerID})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) getInvoice(c *fiber.Ctx) error {
	resp, err := m.invoicePort.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) markInvoicePaid(c *fiber.Ctx) error {
	if caller(c).Role != domain.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "Only admins can settle invoices",
		})
	}
	resp, err := m.invoicePort.MarkPaid(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (m *Module) cancelInvoice(c *fiber.Ctx) error {
	if caller(c).Role != domain.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "Only admins can cancel invoices",
		})
	}
	resp, err := m.invoicePort.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// handleNotificationSocket authenticates the connection and attaches it to
// the notification hub until the peer disconnects.
func (m *Module) handleNotificationSocket(c *websocket.Conn) {
	token := c.Query("token")
	validated, err := m.identityPort.ValidateToken(context.Background(), token)
	if err != nil || !validated.Valid {
		_ = c.WriteJSON(ErrorResponse{Error: "unauthorized", Message: "Invalid or expired token"})
		_ = c.Close()
		return
	}

	client := &notification.Client{
		ID:     uuid.New().String(),
		UserID: validated.UserID,
		Conn:   c,
	}
	m.hub.Register(client)
	defer m.hub.Unregister(client)

	log.Printf("[api] Notification stream opened for user %s", validated.UserID)

	// The stream is push-only; reads only detect disconnection.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	log.Printf("[api] Notification stream closed for user %s", validated.UserID)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
