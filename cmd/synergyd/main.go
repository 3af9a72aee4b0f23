package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/synergy-ops/synergy-ops/internal/app"
	"github.com/synergy-ops/synergy-ops/internal/auth"
	"github.com/synergy-ops/synergy-ops/internal/categories"
	"github.com/synergy-ops/synergy-ops/internal/chat"
	"github.com/synergy-ops/synergy-ops/internal/live"
	"github.com/synergy-ops/synergy-ops/internal/observability"
	"github.com/synergy-ops/synergy-ops/internal/platform/cache"
	"github.com/synergy-ops/synergy-ops/internal/platform/db"
	"github.com/synergy-ops/synergy-ops/internal/pricing"
	"github.com/synergy-ops/synergy-ops/internal/purchaseorders"
	"github.com/synergy-ops/synergy-ops/internal/rows"
	"github.com/synergy-ops/synergy-ops/internal/shared"
	"github.com/synergy-ops/synergy-ops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "synergy_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	bus := live.NewBus(redisClient, cfg.EventChannel, logger)
	bus.UseCounter(metrics)
	liveHandler := live.NewHandler(logger, bus, cfg.SSEHeartbeat)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	guard := auth.RequireAuth
	managerGuard := auth.RequireRole(shared.RoleManager)

	rowsRepo := rows.NewRepository(pool)
	rowsService := rows.NewService(rowsRepo, bus)
	rowsHandler := rows.NewHandler(logger, rowsService, guard)

	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo, bus)
	categoriesHandler := categories.NewHandler(logger, categoriesService, guard, managerGuard)

	poRepo := purchaseorders.NewRepository(pool)
	poService := purchaseorders.NewService(poRepo, rowsService, categoriesService)

	var enqueue func(r *http.Request, id uuid.UUID) error
	if cfg.ExplodeAsync {
		jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		enqueue = func(r *http.Request, id uuid.UUID) error {
			_, err := jobClient.EnqueuePOExplode(r.Context(), id)
			return err
		}
	}
	poHandler := purchaseorders.NewHandler(logger, poService, enqueue, managerGuard)

	chatRepo := chat.NewRepository(pool)
	chatService := chat.NewService(chatRepo, bus)
	chatHandler := chat.NewHandler(logger, chatService, guard)

	pricingService := pricing.NewService(cfg.PriceLocale)
	pricingHandler := pricing.NewHandler(pricingService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		AuthHandler:       authHandler,
		RowsHandler:       rowsHandler,
		CategoriesHandler: categoriesHandler,
		POHandler:         poHandler,
		ChatHandler:       chatHandler,
		LiveHandler:       liveHandler,
		PricingHandler:    pricingHandler,
		Metrics:           metrics,
	})

	// WriteTimeout stays zero: /events holds its response open for the
	// lifetime of the client. API routes get their deadline from the
	// request-timeout middleware instead.
	server := &http.Server{
		Addr:        cfg.AppAddr,
		Handler:     router,
		ReadTimeout: cfg.AppReadTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
