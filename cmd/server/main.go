// Package main is the entry point for the gestoc inventory core.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gestoc/internal/domain/audit"
	"gestoc/internal/domain/costing"
	"gestoc/internal/domain/documents/assessment"
	"gestoc/internal/domain/documents/receipt"
	"gestoc/internal/domain/registers/batch"
	"gestoc/internal/domain/registers/stock"
	"gestoc/internal/domain/registers/valuation"
	v1 "gestoc/internal/infrastructure/http/v1"
	"gestoc/internal/infrastructure/storage/postgres"
	"gestoc/internal/infrastructure/storage/postgres/catalog_repo"
	"gestoc/internal/infrastructure/storage/postgres/document_repo"
	"gestoc/internal/infrastructure/storage/postgres/register_repo"
	"gestoc/pkg/logger"
	"gestoc/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	logger.Info(ctx, "starting gestoc inventory core")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		logger.Fatal(ctx, "database connection failed", "error", err)
	}
	defer pool.Close()
	logger.Info(ctx, "database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Infrastructure ---
	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		logger.Fatal(ctx, "audit store init failed", "error", err)
	}
	auditor := audit.NewRecorder(auditStore)

	journalStore := postgres.NewJournalStore(txManager)
	outboxPublisher := postgres.NewOutboxPublisher(txManager)
	numeratorService := numerator.New(pool.Pool)

	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	batchRepo := register_repo.NewBatchRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	valuationRepo := register_repo.NewValuationRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)
	assessmentRepo := document_repo.NewAssessmentRepo(txManager)

	// --- Domain services ---
	batchLedger := batch.NewLedger(batchRepo)
	stockService := stock.NewService(stockRepo)
	valuationService := valuation.NewService(valuationRepo)
	costingEngine := costing.NewEngine(batchLedger, stockService)

	receiptService := receipt.NewService(
		receiptRepo,
		warehouseRepo,
		batchLedger,
		stockService,
		valuationService,
		journalStore,
		numeratorService,
		txManager,
		auditor,
		outboxPublisher,
	)

	assessmentService := assessment.NewService(
		assessmentRepo,
		warehouseRepo,
		costingEngine,
		batchLedger,
		stockService,
		valuationService,
		journalStore,
		numeratorService,
		txManager,
		auditor,
		outboxPublisher,
	)

	logger.Info(ctx, "domain services wired")

	// --- HTTP ---
	if getEnv("APP_ENV", "development") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		Pool:        pool.Pool,
		Receipts:    receiptService,
		Assessments: assessmentService,
		Stocks:      stockService,
		Engine:      costingEngine,
		Valuations:  valuationService,
		Warehouses:  warehouseRepo,
	})

	srv := &http.Server{
		Addr:              ":" + getEnv("HTTP_PORT", "8080"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	// --- Outbox relay ---
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	relay := postgres.NewOutboxRelay(pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), &logHandler{})
	relayInterval := getEnvDuration("OUTBOX_RELAY_INTERVAL", 5*time.Second)

	go func() {
		ticker := time.NewTicker(relayInterval)
		defer ticker.Stop()
		for {
			select {
			case <-relayCtx.Done():
				return
			case <-ticker.C:
				if n, err := relay.ProcessBatch(relayCtx); err != nil {
					logger.Warn(relayCtx, "outbox relay batch failed", "error", err)
				} else if n > 0 {
					logger.Debug(relayCtx, "outbox relay delivered", "count", n)
				}
			}
		}
	}()

	// --- Pool stats ---
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-relayCtx.Done():
				return
			case <-ticker.C:
				postgres.LogPoolStats(relayCtx, pool.Pool)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "http shutdown incomplete", "error", err)
	}

	logger.Info(ctx, "stopped")
}

// logHandler delivers outbox messages to the log until a broker integration
// is configured.
type logHandler struct{}

func (h *logHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	logger.Info(ctx, "integration event",
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"event_type", msg.EventType,
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
