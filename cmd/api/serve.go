package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/config"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/infrastructure/database"
	"github.com/sangkips/recibo-api/internal/infrastructure/memory"
	"github.com/sangkips/recibo-api/internal/infrastructure/repository"
	"github.com/sangkips/recibo-api/internal/logger"
	"github.com/sangkips/recibo-api/internal/presentation/http/handler"
	"github.com/sangkips/recibo-api/internal/presentation/http/middleware"
	"github.com/sangkips/recibo-api/internal/presentation/http/routes"
	"github.com/sangkips/recibo-api/internal/telemetry"
	"github.com/sangkips/recibo-api/pkg/callnumber"
	"github.com/sangkips/recibo-api/pkg/notify"
	"github.com/sangkips/recibo-api/pkg/printer"
	"github.com/sangkips/recibo-api/pkg/utils"
)

const idempotencySweepInterval = time.Hour

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database holds the catalog, idempotency keys and, by default, receipts
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedDefaultData(db); err != nil {
		log.Warn("Failed to seed default data", slog.Any("error", err))
	}

	metrics := telemetry.New("recibo")

	// Repositories
	var receiptRepo domainRepo.ReceiptRepository
	switch cfg.Receipts.Store {
	case "memory":
		receiptRepo = memory.NewReceiptStore()
		log.Info("Receipts are kept in memory and lost on restart")
	case "database", "":
		receiptRepo = repository.NewReceiptRepository(db)
	default:
		return fmt.Errorf("unknown receipt store %q (use database or memory)", cfg.Receipts.Store)
	}
	productRepo := repository.NewProductRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	if live, err := receiptRepo.List(ctx); err == nil {
		metrics.Receipts.ReceiptsLive.Set(float64(len(live)))
	}

	// Event notifications for the staff display
	notifier, err := notify.NewNotifierFromConfig(cfg.Notify.NatsURL, cfg.Notify.SubjectPrefix, cfg.App.Name)
	if err != nil {
		log.Warn("Failed to connect to NATS, events disabled", slog.Any("error", err))
		notifier = notify.NewNullNotifier()
	}
	defer notifier.Close()

	// Thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Warn("Failed to initialize printer", slog.Any("error", err))
		thermalPrinter = printer.NewNullPrinter()
	}

	// Services
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authService, err := service.NewAuthService(cfg.Staff, jwtManager, log)
	if err != nil {
		return fmt.Errorf("failed to initialize staff auth: %w", err)
	}

	builder := service.NewReceiptBuilder(callnumber.NewAllocator(nil), nil)
	orderService := service.NewOrderService(receiptRepo, builder, notifier, metrics.Receipts, log)
	printerService := service.NewPrinterService(thermalPrinter, receiptRepo, cfg.Printer.StoreName, cfg.Printer.Width, metrics.Receipts, log)
	if cfg.Receipts.AutoPrint {
		orderService.EnableAutoPrint(printerService)
	}
	productService := service.NewProductService(productRepo, filterRepo)
	filterService := service.NewFilterService(filterRepo)

	rateLimiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer rateLimiter.Stop()

	router := routes.Setup(&routes.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Receipt: handler.NewReceiptHandler(orderService),
		Product: handler.NewProductHandler(productService),
		Filter:  handler.NewFilterHandler(filterService),
		Printer: handler.NewPrinterHandler(printerService),
	}, &routes.Deps{
		Cfg:             cfg,
		Logger:          log,
		Tokens:          authService,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         metrics,
		RateLimiter:     rateLimiter,
	})

	go sweepIdempotencyKeys(ctx, idempotencyRepo, log)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			slog.String("service", cfg.App.Name),
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.App.Env),
			slog.String("receipt_store", cfg.Receipts.Store),
			slog.String("printer", thermalPrinter.Type()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// sweepIdempotencyKeys deletes expired keys until ctx is cancelled
func sweepIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *slog.Logger) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := repo.DeleteExpired(ctx, now); err != nil {
				log.Warn("Failed to delete expired idempotency keys", slog.Any("error", err))
			}
		}
	}
}
