package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"flexitime/internal/db"
	"flexitime/internal/domain/auth"
	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
	"flexitime/internal/platform/config"
	authhandler "flexitime/internal/transport/http/handlers/auth"
	presencehandler "flexitime/internal/transport/http/handlers/presence"
	reportshandler "flexitime/internal/transport/http/handlers/reports"
	rollcallhandler "flexitime/internal/transport/http/handlers/rollcall"
	"flexitime/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			slog.Error("seed failed", "err", err)
			os.Exit(1)
		}
	}

	rollcallStore := rollcall.NewStore(pool)
	rollcallSvc := rollcall.NewService(rollcallStore, cfg.HolidayPresenceType, cfg.DayOffPresenceType)
	rollcallSvc.HolidayAutofill = cfg.HolidayAutofill
	rollcallSvc.DayOffAutofill = cfg.DayOffAutofill
	rollcallSvc.ConflictThreshold = cfg.ConflictThreshold

	presenceSvc := presence.NewService(presence.NewStore(pool), cfg.DayOffPresenceType)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(auth.NewStore(pool), cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		rollcallhandler.NewHandler(rollcallSvc, presenceSvc, cfg.WindowMaxDays).RegisterRoutes(r)
		presencehandler.NewHandler(presenceSvc).RegisterRoutes(r)
		reportshandler.NewHandler(rollcallSvc, cfg.ReportsDir).RegisterRoutes(r)
	})

	slog.Info("roll call server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
