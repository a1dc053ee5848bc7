package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fkhayef/pantryledger/docs"
	"github.com/fkhayef/pantryledger/internal/balance"
	"github.com/fkhayef/pantryledger/internal/config"
	"github.com/fkhayef/pantryledger/internal/database"
	"github.com/fkhayef/pantryledger/internal/expense"
	expensesplit "github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/notification"
	"github.com/fkhayef/pantryledger/internal/settlement"
	mw "github.com/fkhayef/pantryledger/pkg/middleware"
)

//go:generate swag init -g cmd/api/main.go -o docs --parseInternal

// @title           Pantry Ledger API
// @version         1.0
// @description     Shared grocery expenses, settlements and balances for a household.
// @BasePath        /api/v1
// @securityDefinitions.apikey MemberID
// @in header
// @name X-Member-ID
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err, "driver", cfg.DatabaseDriver)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database", "driver", cfg.DatabaseDriver)

	if cfg.RunMigrations {
		if err := database.Migrate(context.Background(), db, cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Ledger events are persisted off the request path
	eventRepo := notification.NewRepository(db)
	eventWorker := notification.NewWorker(eventRepo, cfg.EventBufferSize, logger)
	eventWorker.Start()
	eventService := notification.NewService(eventRepo)
	eventHandler := notification.NewHandler(eventService)

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory()

	// Household member directory
	householdRepo := household.NewRepository(db)
	householdService := household.NewService(householdRepo)
	householdHandler := household.NewHandler(householdService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, splitFactory, householdService, eventWorker, cfg.DefaultCurrency, logger)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, expenseRepo, eventWorker, cfg.SettlementMaxRetries, logger)
	settlementHandler := settlement.NewHandler(settlementService)

	// Balances
	balanceService := balance.NewService(expenseRepo, householdService)
	balanceHandler := balance.NewHandler(balanceService)

	rateLimit, err := mw.RateLimit(cfg.RateLimit)
	if err != nil {
		logger.Error("invalid rate limit", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics)
	r.Use(mw.MemberIdentity)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	if !cfg.IsProduction() {
		docs.SwaggerInfo.BasePath = "/api/v1"
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	// API routes
	r.Route("/api/v1/households/{householdId}", func(r chi.Router) {
		r.Use(rateLimit)

		// Mount feature routers
		r.Mount("/members", householdHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes(settlementHandler.RegisterExpenseRoutes))
		r.Mount("/items", expenseHandler.ItemRoutes())
		r.Mount("/settlements", settlementHandler.SettlementRoutes())
		r.Mount("/payments", settlementHandler.PaymentRoutes())
		r.Mount("/balances", balanceHandler.Routes())
		r.Mount("/events", eventHandler.Routes())
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	eventWorker.Shutdown()
	logger.Info("server exited")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
