// vacancy-service — hh.ru vacancy tracker
//
// Polls the hh.ru vacancies API for each configured search script,
// filters results by keyword, reconciles them against the tracked set
// (new / existing / disappeared) and records per-run statistics.
// Exposes a REST API to trigger runs and poll their status.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/api"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/config"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/db"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/filter"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/hh"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/metrics"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/parser"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/run"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/scheduler"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

const (
	serviceName = "vacancy-service"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()
	log.Info("starting", "service", serviceName, "version", version)
	metrics.Init(serviceName, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "err", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "err", err)
	}
	defer rdb.Close()
	log.Info("redis connected")

	st := store.NewPostgres(pool)

	client := hh.NewClient(hh.Config{
		BaseURL:   cfg.HHBaseURL,
		UserAgent: cfg.HHUserAgent,
		Timeout:   cfg.RequestTimeout,
	})
	matcher := filter.New(filter.DefaultVariants...)
	worker := parser.NewWorker(client, matcher, st, st, cfg.RequestDelay, log.Named("parser"))
	manager := run.NewManager(st, st, worker, rdb, log.Named("run"))

	if cfg.RunIntervalHours > 0 {
		sched := scheduler.New(st, manager, cfg.RunIntervalHours, log.Named("scheduler"))
		if err := sched.Start(ctx); err != nil {
			log.Fatal("scheduler start failed", "err", err)
		}
		defer sched.Stop()
	}

	handler := api.NewHandler(manager, st, st, st, log.Named("api"))
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", "err", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Warn("run manager shutdown error", "err", err)
	}
	log.Info("stopped")
}
