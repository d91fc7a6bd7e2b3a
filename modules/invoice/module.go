// Package invoice issues immutable billing documents over completed payment
// transactions in the ledger.
package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/WS24/ws24dev-sub001/events"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides the invoice services via GORM + SQLite. It depends on the
// ledger to verify that a transaction is a completed payment.
type Module struct {
	db         *gorm.DB
	service    *Service
	eventBus   mono.EventBus
	ledgerPort ledger.LedgerPort
	dbPath     string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new invoice module.
func NewModule() *Module {
	dbPath := os.Getenv("INVOICE_DB_PATH")
	if dbPath == "" {
		dbPath = "invoices.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "invoice"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"ledger"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "ledger" {
		m.ledgerPort = ledger.NewLedgerAdapter(container)
	}
}

// SetEventBus receives the application event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.InvoiceIssuedV1.ToBase(),
	}
}

// RegisterServices registers the invoice request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	type handlerReg struct {
		name string
		fn   func(mono.ServiceContainer) error
	}
	regs := []handlerReg{
		{"issue", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "issue", json.Unmarshal, json.Marshal, m.handleIssue)
		}},
		{"get", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get", json.Unmarshal, json.Marshal, m.handleGet)
		}},
		{"get-by-transaction", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get-by-transaction", json.Unmarshal, json.Marshal, m.handleGetByTransaction)
		}},
		{"list-for-payer", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "list-for-payer", json.Unmarshal, json.Marshal, m.handleList)
		}},
		{"mark-paid", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "mark-paid", json.Unmarshal, json.Marshal, m.handleMarkPaid)
		}},
		{"cancel", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "cancel", json.Unmarshal, json.Marshal, m.handleCancel)
		}},
	}
	for _, reg := range regs {
		if err := reg.fn(container); err != nil {
			return fmt.Errorf("failed to register %s service: %w", reg.name, err)
		}
	}

	log.Printf("[invoice] Registered services: issue, get, get-by-transaction, list-for-payer, mark-paid, cancel")
	return nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	if m.ledgerPort == nil {
		return fmt.Errorf("ledger dependency not set")
	}

	log.Printf("[invoice] Connecting to SQLite database: %s", m.dbPath)
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	repo := NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.service = NewService(repo, m.ledgerPort)

	log.Println("[invoice] Module started (depends on: ledger)")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health performs a health check on the invoice module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

func (m *Module) handleIssue(ctx context.Context, req IssueRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Issue(ctx, req.TransactionID, req.IssuerID)
	if err != nil {
		return InvoiceResponse{}, err
	}

	if m.eventBus != nil {
		event := events.InvoiceIssuedEvent{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			TransactionID: inv.TransactionID,
			TaskID:        inv.TaskID,
			PayerID:       inv.PayerID,
			Amount:        inv.Amount,
			IssuedAt:      time.Now(),
		}
		if err := events.InvoiceIssuedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[invoice] Warning: failed to publish InvoiceIssued event for invoice %s: %v", inv.ID, err)
		}
	}
	return toInvoiceResponse(inv), nil
}

func (m *Module) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Get(ctx, req.InvoiceID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}

func (m *Module) handleGetByTransaction(ctx context.Context, req GetByTransactionRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.GetByTransaction(ctx, req.TransactionID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	invoices, err := m.service.ListForPayer(ctx, req.PayerID, req.Limit)
	if err != nil {
		return ListResponse{}, err
	}
	resp := ListResponse{Invoices: make([]InvoiceResponse, 0, len(invoices)), Total: len(invoices)}
	for _, inv := range invoices {
		resp.Invoices = append(resp.Invoices, toInvoiceResponse(inv))
	}
	return resp, nil
}

func (m *Module) handleMarkPaid(ctx context.Context, req MarkPaidRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.MarkPaid(ctx, req.InvoiceID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}

func (m *Module) handleCancel(ctx context.Context, req CancelRequest, _ *mono.Msg) (InvoiceResponse, error) {
	inv, err := m.service.Cancel(ctx, req.InvoiceID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}
