package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"StockPredict/pkg/config"
	xhttp "StockPredict/pkg/http"
	pkgkafka "StockPredict/pkg/kafka"
	applogger "StockPredict/pkg/logger"
)

// HealthChecker reports backend health for /readyz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Scheduler is the cron runner lifecycle.
type Scheduler interface {
	Start()
	Stop(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	health     HealthChecker
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	scheduler  Scheduler
	closers    []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates an App serving handler. consumer, kh and scheduler may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	health HealthChecker,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	scheduler Scheduler,
) *App {
	a := &App{
		cfg:       cfg,
		log:       log,
		health:    health,
		consumer:  consumer,
		kh:        kh,
		scheduler: scheduler,
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(handler, log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithMetricsPath(metricsPath),
	)
	a.httpServer.Echo().GET("/readyz", a.ready)
	return a
}

// OnClose registers resources closed after every service stopped, in
// registration order.
func (a *App) OnClose(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Echo exposes the HTTP router.
func (a *App) Echo() *echo.Echo { return a.httpServer.Echo() }

// Start launches the consumer, the scheduler and the HTTP server.
func (a *App) Start() error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		a.consumer.WithConsumerHook(pkgkafka.LoggingHook{Log: a.log, Slow: 2 * time.Second})
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first, then drains workers, then closes resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	// flush aggregated logs while the producer is still open
	a.log.RemoveCollector()

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) ready(c echo.Context) error {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := a.health.Health(ctx); err != nil {
			a.log.Warn("readiness check failed", applogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("storage unavailable").WithError(err))
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
