package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rolekeeper/internal/discord"
	"rolekeeper/internal/grants/handler"
	"rolekeeper/internal/grants/ledger"
	"rolekeeper/internal/grants/metrics"
	"rolekeeper/internal/grants/service"
	"rolekeeper/internal/grants/store"
	"rolekeeper/internal/grants/sweeper"
	"rolekeeper/internal/platform/config"
	"rolekeeper/internal/platform/httpserver"
	"rolekeeper/internal/platform/logger"
	"rolekeeper/internal/platform/postgres"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Grant logic lives in the internal/grants packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	for _, problem := range cfg.Validate() {
		log.Warn("configuration problem", "detail", problem)
	}
	if cfg.BotToken == "" || cfg.TemporaryRoleID == 0 {
		log.Error("missing required configuration, refusing to start")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing or unreachable database is survivable: the ledger degrades
	// to its in-memory fallback and grants stop surviving restarts.
	db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Warn("database unavailable, running on fallback cache", "error", err)
		db = nil
	}

	var primary store.Store
	if db != nil {
		defer db.Close()
		if err := store.RunMigrations(db); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		primary = store.NewPostgres(db)
		log.Info("grant store ready")
	}

	m := metrics.New()
	grantLedger := ledger.New(primary, ledger.WithLogger(log), ledger.WithMetrics(m))

	client := discord.New(cfg.BotToken, discord.WithMinCallInterval(cfg.MinCallInterval))

	svc, err := service.New(grantLedger, client,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithManagedRoles(cfg.ManagedRoleIDs),
	)
	if err != nil {
		log.Error("failed to build grant service", "error", err)
		os.Exit(1)
	}

	sweep := sweeper.New(grantLedger, client,
		sweeper.WithLogger(log),
		sweeper.WithMetrics(m),
		sweeper.WithInterval(cfg.SweepInterval),
	)

	h := handler.New(svc, sweep, log, cfg.TemporaryRoleID, cfg.GrantTTL)
	srv := httpserver.New(cfg.Addr, h.Router())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweep.Start(gctx)
	})

	g.Go(func() error {
		log.Info("starting rolekeeper", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown incomplete", "error", err)
		}

		// Lets an in-flight revocation finish before the schedule stops.
		sweep.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("rolekeeper stopped")
}
