package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/WS24/ws24dev-sub001/modules/evaluation"
	"github.com/WS24/ws24dev-sub001/modules/identity"
	"github.com/WS24/ws24dev-sub001/modules/invoice"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/WS24/ws24dev-sub001/modules/notification"
	"github.com/WS24/ws24dev-sub001/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module exposes the lifecycle and billing engine over HTTP and streams
// notifications over WebSocket.
type Module struct {
	app            *fiber.App
	identityPort   identity.IdentityPort
	taskPort       task.TaskPort
	ledgerPort     ledger.LedgerPort
	invoicePort    invoice.InvoicePort
	evaluationPort evaluation.EvaluationPort
	hub            *notification.Hub
	port           string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module.
func NewModule() *Module {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{port: port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"identity", "task", "ledger", "invoice", "evaluation"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "identity":
		m.identityPort = identity.NewIdentityAdapter(container)
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "ledger":
		m.ledgerPort = ledger.NewLedgerAdapter(container)
	case "invoice":
		m.invoicePort = invoice.NewInvoiceAdapter(container)
	case "evaluation":
		m.evaluationPort = evaluation.NewEvaluationAdapter(container)
	}
}

// SetHub sets the notification hub (called from main.go).
func (m *Module) SetHub(hub *notification.Hub) {
	m.hub = hub
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.identityPort == nil || m.taskPort == nil || m.ledgerPort == nil ||
		m.invoicePort == nil || m.evaluationPort == nil {
		return fmt.Errorf("module dependencies not set")
	}
	if m.hub == nil {
		return fmt.Errorf("notification hub dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":              m.port,
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging. WebSocket
// upgrade requests are skipped because they never produce a final status.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[api] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
