// Package evaluation provides the store for specialist pricing proposals.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides the evaluation store services via GORM + SQLite.
type Module struct {
	db      *gorm.DB
	service *Service
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new evaluation module.
func NewModule() *Module {
	dbPath := os.Getenv("EVALUATION_DB_PATH")
	if dbPath == "" {
		dbPath = "evaluations.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "evaluation"
}

// RegisterServices registers the evaluation request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "submit", json.Unmarshal, json.Marshal, m.handleSubmit,
	); err != nil {
		return fmt.Errorf("failed to register submit service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "accept", json.Unmarshal, json.Marshal, m.handleAccept,
	); err != nil {
		return fmt.Errorf("failed to register accept service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-accepted", json.Unmarshal, json.Marshal, m.handleGetAccepted,
	); err != nil {
		return fmt.Errorf("failed to register get-accepted service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-for-task", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-for-task service: %w", err)
	}

	log.Printf("[evaluation] Registered services: submit, accept, get, get-accepted, list-for-task")
	return nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[evaluation] Connecting to SQLite database: %s", m.dbPath)

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
	m.service = NewService(repo)

	log.Println("[evaluation] Module started")
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

// Health performs a health check on the evaluation module.
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

func (m *Module) handleSubmit(ctx context.Context, req SubmitRequest, _ *mono.Msg) (EvaluationResponse, error) {
	eval, err := m.service.Submit(ctx, req.TaskID, req.SpecialistID, req.EstimatedHours, money.FromCents(req.RateCents), req.Notes)
	if err != nil {
		return EvaluationResponse{}, err
	}
	return toEvaluationResponse(eval), nil
}

func (m *Module) handleAccept(ctx context.Context, req AcceptRequest, _ *mono.Msg) (EvaluationResponse, error) {
	eval, err := m.service.Accept(ctx, req.EvaluationID)
	if err != nil {
		return EvaluationResponse{}, err
	}
	return toEvaluationResponse(eval), nil
}

func (m *Module) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (EvaluationResponse, error) {
	eval, err := m.service.Get(ctx, req.EvaluationID)
	if err != nil {
		return EvaluationResponse{}, err
	}
	return toEvaluationResponse(eval), nil
}

func (m *Module) handleGetAccepted(ctx context.Context, req GetAcceptedRequest, _ *mono.Msg) (EvaluationResponse, error) {
	eval, err := m.service.GetAccepted(ctx, req.TaskID)
	if err != nil {
		return EvaluationResponse{}, err
	}
	return toEvaluationResponse(eval), nil
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	evals, err := m.service.ListForTask(ctx, req.TaskID)
	if err != nil {
		return ListResponse{}, err
	}
	resp := ListResponse{Evaluations: make([]EvaluationResponse, 0, len(evals)), Total: len(evals)}
	for _, eval := range evals {
		resp.Evaluations = append(resp.Evaluations, toEvaluationResponse(eval))
	}
	return resp, nil
}
