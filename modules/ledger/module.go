// Package ledger provides the append-only transaction log and balance
// projection behind the marketplace billing engine.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/WS24/ws24dev-sub001/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const balanceCacheTTL = 5 * time.Minute

// Module provides the ledger services via GORM + SQLite, with an optional
// Redis balance-projection cache.
type Module struct {
	db          *gorm.DB
	redisClient *redis.Client
	service     *Service
	eventBus    mono.EventBus
	dbPath      string
	redisAddr   string
	split       float64
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new ledger module configured from the environment.
func NewModule() *Module {
	dbPath := os.Getenv("LEDGER_DB_PATH")
	if dbPath == "" {
		dbPath = "ledger.db"
	}
	split := DefaultCommissionSplit
	if raw := os.Getenv("COMMISSION_SPLIT"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			log.Printf("[ledger] Ignoring invalid COMMISSION_SPLIT %q, using default %.2f", raw, DefaultCommissionSplit)
		} else {
			split = parsed
		}
	}
	return &Module{
		dbPath:    dbPath,
		redisAddr: os.Getenv("REDIS_ADDR"),
		split:     split,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ledger"
}

// SetEventBus receives the application event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PaymentCapturedV1.ToBase(),
		events.PayoutIssuedV1.ToBase(),
		events.PaymentRefundedV1.ToBase(),
	}
}

// RegisterServices registers the ledger request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	type handlerReg struct {
		name string
		fn   func(mono.ServiceContainer) error
	}
	regs := []handlerReg{
		{"topup", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "topup", json.Unmarshal, json.Marshal, m.handleTopup)
		}},
		{"withdraw", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "withdraw", json.Unmarshal, json.Marshal, m.handleWithdraw)
		}},
		{"capture", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "capture", json.Unmarshal, json.Marshal, m.handleCapture)
		}},
		{"settle", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "settle", json.Unmarshal, json.Marshal, m.handleSettle)
		}},
		{"refund", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "refund", json.Unmarshal, json.Marshal, m.handleRefund)
		}},
		{"balance", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "balance", json.Unmarshal, json.Marshal, m.handleBalance)
		}},
		{"statement", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "statement", json.Unmarshal, json.Marshal, m.handleStatement)
		}},
		{"get-entry", func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get-entry", json.Unmarshal, json.Marshal, m.handleGetEntry)
		}},
	}
	for _, reg := range regs {
		if err := reg.fn(container); err != nil {
			return fmt.Errorf("failed to register %s service: %w", reg.name, err)
		}
	}

	log.Printf("[ledger] Registered services: topup, withdraw, capture, settle, refund, balance, statement, get-entry")
	return nil
}

// Start opens the database, runs migrations and connects the optional cache.
func (m *Module) Start(ctx context.Context) error {
	log.Printf("[ledger] Connecting to SQLite database: %s", m.dbPath)

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

	var cache BalanceCache = noopBalanceCache{}
	if m.redisAddr != "" {
		m.redisClient = redis.NewClient(&redis.Options{Addr: m.redisAddr})
		if err := m.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis at %s: %w", m.redisAddr, err)
		}
		cache = newRedisBalanceCache(m.redisClient, balanceCacheTTL)
		log.Printf("[ledger] Balance cache enabled (redis: %s)", m.redisAddr)
	}

	m.service = NewService(repo, cache, m.split)
	log.Printf("[ledger] Module started (commission split: %.2f)", m.split)
	return nil
}

// Stop closes the database and Redis connections.
func (m *Module) Stop(_ context.Context) error {
	if m.redisClient != nil {
		if err := m.redisClient.Close(); err != nil {
			log.Printf("[ledger] Failed to close Redis client: %v", err)
		}
	}
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health performs a health check on the ledger module.
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
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":        "sqlite",
			"path":          m.dbPath,
			"balance_cache": m.redisAddr != "",
		},
	}
}

func (m *Module) handleTopup(ctx context.Context, req TopupRequest, _ *mono.Msg) (EntryResponse, error) {
	entry, err := m.service.RecordTopup(ctx, req.UserID, money.FromCents(req.AmountCents))
	if err != nil {
		return EntryResponse{}, err
	}
	return toEntryResponse(entry), nil
}

func (m *Module) handleWithdraw(ctx context.Context, req WithdrawRequest, _ *mono.Msg) (EntryResponse, error) {
	entry, err := m.service.Withdraw(ctx, req.UserID, money.FromCents(req.AmountCents))
	if err != nil {
		return EntryResponse{}, err
	}
	return toEntryResponse(entry), nil
}

func (m *Module) handleCapture(ctx context.Context, req CaptureRequest, _ *mono.Msg) (EntryResponse, error) {
	entry, err := m.service.CaptureForTask(ctx, req.ClientID, req.TaskID, money.FromCents(req.AmountCents))
	if err != nil {
		return EntryResponse{}, err
	}

	m.publishCaptured(entry.ID, req.TaskID, req.ClientID, entry.Amount.Cents())
	return toEntryResponse(entry), nil
}

func (m *Module) handleSettle(ctx context.Context, req SettleRequest, _ *mono.Msg) (SettleResponse, error) {
	settlement, err := m.service.SettleTask(ctx, req.TaskID, req.SpecialistID)
	if err != nil {
		return SettleResponse{}, err
	}

	resp := SettleResponse{
		Payment: toEntryResponse(settlement.Payment),
		Payout:  toEntryResponse(settlement.Payout),
	}
	var fee money.Money
	if settlement.Fee != nil {
		feeResp := toEntryResponse(settlement.Fee)
		resp.Fee = &feeResp
		fee = settlement.Fee.Amount
	}

	if m.eventBus != nil {
		event := events.PayoutIssuedEvent{
			EntryID:      settlement.Payout.ID,
			TaskID:       req.TaskID,
			SpecialistID: req.SpecialistID,
			Amount:       settlement.Payout.Amount,
			PlatformFee:  fee,
			IssuedAt:     time.Now(),
		}
		if err := events.PayoutIssuedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[ledger] Warning: failed to publish PayoutIssued event for task %s: %v", req.TaskID, err)
		}
	}
	return resp, nil
}

func (m *Module) handleRefund(ctx context.Context, req RefundRequest, _ *mono.Msg) (EntryResponse, error) {
	refund, err := m.service.RefundTask(ctx, req.TaskID, req.Reason)
	if err != nil {
		return EntryResponse{}, err
	}

	if m.eventBus != nil {
		event := events.PaymentRefundedEvent{
			EntryID:    refund.ID,
			TaskID:     req.TaskID,
			ClientID:   refund.ToUserID,
			Amount:     refund.Amount,
			Reason:     req.Reason,
			RefundedAt: time.Now(),
		}
		if err := events.PaymentRefundedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[ledger] Warning: failed to publish PaymentRefunded event for task %s: %v", req.TaskID, err)
		}
	}
	return toEntryResponse(refund), nil
}

func (m *Module) handleBalance(ctx context.Context, req BalanceRequest, _ *mono.Msg) (BalanceResponse, error) {
	balance, err := m.service.BalanceOf(ctx, req.UserID)
	if err != nil {
		return BalanceResponse{}, err
	}
	return BalanceResponse{UserID: req.UserID, BalanceCents: balance.Cents()}, nil
}

func (m *Module) handleStatement(ctx context.Context, req StatementRequest, _ *mono.Msg) (StatementResponse, error) {
	entries, err := m.service.Statement(ctx, req.UserID, req.Limit)
	if err != nil {
		return StatementResponse{}, err
	}
	resp := StatementResponse{Entries: make([]EntryResponse, 0, len(entries)), Total: len(entries)}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(entry))
	}
	return resp, nil
}

func (m *Module) handleGetEntry(ctx context.Context, req GetEntryRequest, _ *mono.Msg) (EntryResponse, error) {
	entry, err := m.service.GetEntry(ctx, req.EntryID)
	if err != nil {
		return EntryResponse{}, err
	}
	return toEntryResponse(entry), nil
}

func (m *Module) publishCaptured(entryID, taskID, clientID string, amountCents int64) {
	if m.eventBus == nil {
		return
	}
	event := events.PaymentCapturedEvent{
		EntryID:    entryID,
		TaskID:     taskID,
		ClientID:   clientID,
		Amount:     money.FromCents(amountCents),
		CapturedAt: time.Now(),
	}
	if err := events.PaymentCapturedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[ledger] Warning: failed to publish PaymentCaptured event for task %s: %v", taskID, err)
	}
}
