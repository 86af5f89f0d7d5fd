package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	mirror     repository.Mirror
	httpServer *xhttp.Server
}

// New creates an App with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler, mirror repository.Mirror) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		handler: handler,
		mirror:  mirror,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("signaldesk started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("guard_state", a.cfg.Guard.StateBackend),
		applogger.String("journal_mirror", a.cfg.Journal.MirrorBackend),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the server and closes infrastructure clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			a.log.Warn("mirror close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
