package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"circulation/internal/circulation/handler"
	"circulation/internal/circulation/lock"
	circmetrics "circulation/internal/circulation/metrics"
	"circulation/internal/circulation/service"
	"circulation/internal/circulation/store"
	itemstore "circulation/internal/circulation/store/item"
	loanstore "circulation/internal/circulation/store/loan"
	memberstore "circulation/internal/circulation/store/member"
	"circulation/internal/platform/config"
	"circulation/internal/platform/httpserver"
	"circulation/internal/platform/logger"
	"circulation/internal/platform/metrics"
	"circulation/internal/platform/postgres"
	platformredis "circulation/internal/platform/redis"
	"circulation/pkg/platform/httputil"
)

type infra struct {
	db    *sql.DB
	redis *platformredis.Client
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, cfgErr := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if cfgErr != nil {
		log.Warn("ignoring invalid configuration values", "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.New(reg)
	circMetrics := circmetrics.New(reg)

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise infrastructure", "error", err)
		os.Exit(1)
	}
	defer deps.close(log)

	svc, stores := buildService(cfg, deps, log, circMetrics)

	if cfg.SeedDemoData {
		seeded, err := store.SeedDemoData(ctx, stores.items, stores.members)
		if err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		if seeded {
			log.Info("seeded demo catalog and members")
		}
	}

	if cfg.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN is not set; admin routes will reject every request")
	}

	router := chi.NewRouter()
	router.Get("/health", healthHandler(deps))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, svc.Fines(), cfg.AdminToken, log, httpMetrics).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting circulation server", "addr", cfg.Addr, "postgres", deps.db != nil, "redis", deps.redis != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		deps.db = db
	} else {
		log.Info("DATABASE_URL not set; using in-memory stores")
	}

	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		// The sharded in-process lock still serializes this replica.
		log.Warn("redis unavailable; item locks stay in-process", "error", err)
	}
	deps.redis = client
	return deps, nil
}

func (d *infra) close(log *slog.Logger) {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
}

type seedStores struct {
	items   store.ItemSeeder
	members store.MemberSeeder
}

func buildService(cfg config.Server, deps *infra, log *slog.Logger, m *circmetrics.Metrics) (*service.Service, seedStores) {
	var locker lock.Locker = lock.NewSharded()
	if deps.redis != nil {
		locker = lock.NewRedis(deps.redis.Client, locker,
			lock.WithTTL(cfg.Circulation.LockTTL),
			lock.WithLogger(log),
			lock.WithMetrics(m),
		)
	}

	var (
		tx     service.CirculationTx
		stores service.TxStores
		seeds  seedStores
	)
	if deps.db != nil {
		items := itemstore.NewPostgres(deps.db)
		members := memberstore.NewPostgres(deps.db)
		stores = service.TxStores{
			Items:   items,
			Members: members,
			Loans:   loanstore.NewPostgres(deps.db),
		}
		tx = newCirculationPostgresTx(deps.db, items, stores, locker, cfg.Circulation.TxTimeout)
		seeds = seedStores{items: items, members: members}
	} else {
		items := itemstore.NewInMemory()
		members := memberstore.NewInMemory()
		stores = service.TxStores{
			Items:   items,
			Members: members,
			Loans:   loanstore.NewInMemory(),
		}
		tx = service.NewLockingTx(locker, stores, cfg.Circulation.TxTimeout)
		seeds = seedStores{items: items, members: members}
	}

	svc := service.New(tx, stores,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(otel.Tracer("circulation/service")),
		service.WithPolicy(service.Policy{
			DailyFineRate: cfg.Circulation.DailyFineRate,
			LoanPeriod:    cfg.Circulation.LoanPeriod,
			RenewalPeriod: cfg.Circulation.RenewalPeriod,
			MaxAttempts:   cfg.Circulation.TxMaxAttempts,
		}),
	)
	return svc, seeds
}

func healthHandler(deps *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if deps.db != nil {
			if err := deps.db.PingContext(ctx); err != nil {
				status["postgres"] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			} else {
				status["postgres"] = "ok"
			}
		}
		if deps.redis != nil {
			// Redis failures degrade locking to in-process, not the service.
			if err := deps.redis.Health(ctx); err != nil {
				status["redis"] = "unavailable"
			} else {
				status["redis"] = "ok"
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
