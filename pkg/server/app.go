package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scheduler  *usecase.Scheduler
	httpServer *xhttp.Server
	publisher  drepo.EventPublisher
	closers    []io.Closer
}

// New creates a new App instance with all dependencies.
// closers are released in order after the scheduler and HTTP server have stopped.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
	publisher drepo.EventPublisher,
	closers ...io.Closer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		scheduler:  scheduler,
		httpServer: httpServer,
		publisher:  publisher,
		closers:    closers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext runs until ctx is cancelled.
func (a *App) RunContext(ctx context.Context) error {
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	done := make(chan error, 1)
	go func() { done <- a.scheduler.Run(ctx) }()
	a.log.Info("digest scheduler started",
		applogger.Strings("watch_list", a.cfg.Analysis.WatchList),
		applogger.Duration("interval", a.cfg.Scheduler.Interval),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	// the scheduler wait is cancellable, a running cycle gets a bounded grace period
	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("scheduler stopped with error", applogger.Error(err))
		}
	case <-time.After(a.cfg.Server.ShutdownTimeout):
		a.log.Warn("scheduler did not stop in time")
	}
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// flush aggregated logs while the producer is still open
	a.log.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("resource close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
