package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/astowny/monteur-ia/internal/config"
	"github.com/astowny/monteur-ia/internal/httpapi"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

// sweepScheduler registers the job sweeper on a cron instance.
type sweepScheduler struct {
	sweeper *jobs.Sweeper
	cron    *cron.Cron
}

func (s sweepScheduler) Schedule(ctx context.Context) error {
	log.Info("Scheduling job sweep %q", s.sweeper.CronExpr())
	return s.sweeper.Schedule(ctx, s.cron)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, store, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if n, err := app.Orchestrator().RecoverInterrupted(ctx); err != nil {
		return err
	} else if n > 0 {
		log.Warn("Recovered %d interrupted jobs", n)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	return runWithComponents(ctx, cfg, sweepScheduler{sweeper: app.Sweeper(), cron: c}, c, httpapi.NewServer(app))
}

// runWithComponents starts the scheduler and the HTTP server and blocks
// until ctx is done or the server fails, then shuts both down.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	sched scheduler,
	engine cronEngine,
	srv httpServer,
) error {
	if err := sched.Schedule(ctx); err != nil {
		return err
	}
	engine.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe(cfg.HTTP.Addr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown: %v", err)
	}
	select {
	case <-engine.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("Job sweep still running at shutdown")
	}
	return serveErr
}
