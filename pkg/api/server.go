package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr      string
	StaticDir string // optional directory of static assets
}

// NewServer wires routes and middleware into an echo instance. CORS is
// permissive; the route endpoint is a plain GET for easy embedding.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/route", handlers.HandleRoute)
	e.GET("/health", handlers.HandleHealth)
	e.GET("/stats", handlers.HandleStats)

	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	return e
}

// Serve starts the server and blocks until ctx is canceled, then shuts
// down gracefully.
func Serve(ctx context.Context, e *echo.Echo, cfg ServerConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		errCh <- e.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
