package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/apu-builder/internal/config"
	"github.com/Spok95/apu-builder/internal/domain/catalog"
	"github.com/Spok95/apu-builder/internal/draft"
	"github.com/Spok95/apu-builder/internal/infra/backend"
	"github.com/Spok95/apu-builder/internal/infra/db"
	httpx "github.com/Spok95/apu-builder/internal/infra/http"
	"github.com/Spok95/apu-builder/internal/infra/logger"
	"github.com/Spok95/apu-builder/internal/notify"
	"github.com/Spok95/apu-builder/internal/workbench"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// без DSN черновики живут только в памяти процесса
	var drafts draft.Store = draft.NewMemory()
	if cfg.Postgres.DSN != "" {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")
		drafts = draft.NewRepo(pool)
	} else {
		log.Warn("postgres dsn is empty, drafts are kept in memory")
	}

	client, err := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	if err != nil {
		log.Error("backend client failed", "err", err)
		return
	}

	notifier, err := notify.Connect(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		// уведомления необязательны
		log.Error("telegram connect failed", "err", err)
		notifier = notify.Nop{}
	}

	wb := workbench.New(workbench.Options{
		Backend:        client,
		Catalogs:       catalog.NewStore(client),
		Drafts:         drafts,
		Notifier:       notifier,
		Debounce:       cfg.Pricing.Debounce,
		MatchThreshold: cfg.Pricing.MatchThreshold,
		Log:            log,
	})
	defer wb.Shutdown()

	if err := wb.ReloadCatalogs(ctx); err != nil {
		log.Error("initial catalog load failed", "err", err)
	}

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, wb, log)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr, "backend", cfg.Backend.BaseURL)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
