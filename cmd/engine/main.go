package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/payment-engine/internal/application"
	"github.com/DanielPopoola/payment-engine/internal/application/services"
	"github.com/DanielPopoola/payment-engine/internal/config"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/payment-engine/internal/infrastructure/persistence/sqlite"
	"github.com/DanielPopoola/payment-engine/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/payment-engine/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment engine",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"gateway", cfg.Gateway.Driver,
	)

	ctx := context.Background()
	repo, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	gw := newGateway(cfg, logger)
	service := services.NewPaymentService(repo, gw, application.SystemClock{}, logger, cfg.Gateway.Timeout)

	router := handlers.NewRouter(handlers.NewHandler(service, logger), logger, cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	monitor := worker.NewStaleMonitor(
		repo,
		application.SystemClock{},
		cfg.Worker.Interval,
		cfg.Worker.StaleAfter,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go monitor.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (application.TransactionRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := persistence.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return postgres.NewTransactionRepository(db), db.Close, nil

	case config.StorageDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite storage ready", "path", cfg.Storage.SQLitePath)
		return sqlite.NewTransactionRepository(db), func() { _ = db.Close() }, nil

	default:
		logger.Warn("using in-memory storage; transactions are lost on restart")
		return memory.NewTransactionRepository(), func() {}, nil
	}
}

func newGateway(cfg *config.Config, logger *slog.Logger) application.Gateway {
	if cfg.Gateway.Driver == config.GatewayDriverHTTP {
		return gateway.NewRetryGateway(gateway.NewHTTPGateway(cfg.Gateway), cfg.Retry, logger)
	}
	return gateway.NewMockGateway(logger)
}
