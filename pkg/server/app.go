package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"DashSync/internal/usecase"
	"DashSync/pkg/config"
	xhttp "DashSync/pkg/http"
	"DashSync/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	engine     *usecase.SyncEngine
	httpServer *xhttp.Server
	log        *logger.Logger
	engineErr  chan error
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, engine *usecase.SyncEngine, httpServer *xhttp.Server, l *logger.Logger) *App {
	if l == nil {
		l = logger.Nop()
	}
	return &App{
		cfg:        cfg,
		engine:     engine,
		httpServer: httpServer,
		log:        l,
		engineErr:  make(chan error, 1),
	}
}

// Run starts the engine and the HTTP server and blocks until interrupted,
// the server fails or the engine stops on its own.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	engineCtx, cancelEngine := context.WithCancel(context.Background())
	defer cancelEngine()

	go func() { a.engineErr <- a.engine.Run(engineCtx) }()
	a.log.Info("engine started",
		logger.String("env", a.cfg.Environment),
		logger.String("backend", a.cfg.Backend.BaseURL),
		logger.Strings("instruments", a.engine.Instruments().Symbols()),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		a.engine.Close()
		<-a.engineErr
		return err
	}

	var runErr error
	engineExited := false
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-a.engineErr:
		engineExited = true
		if err == nil {
			err = errors.New("engine stopped unexpectedly")
		}
		runErr = fmt.Errorf("engine: %w", err)
	}

	a.shutdown(engineExited)
	return runErr
}

// shutdown stops the HTTP server, then the engine, and waits until engine Run
// has returned and every subscriber channel is closed.
func (a *App) shutdown(engineExited bool) {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	a.engine.Close()
	if !engineExited {
		if err := <-a.engineErr; err != nil {
			a.log.Warn("engine stop error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
