package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"

	"backoffice/docs"
	"backoffice/internal/app"
	"backoffice/internal/config"
	handlers "backoffice/internal/http/handler"
	"backoffice/internal/http/middleware"
	"backoffice/internal/logger"
	"backoffice/internal/otel"
)

const (
	bodyLimit       = 60 << 20
	shutdownTimeout = 10 * time.Second
)

// @title Backoffice API
// @version 1.0
// @description Music label backoffice: catalog, contracts, e-signature, royalties, shareable tracks and team tools.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	server := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	prom, err := middleware.NewPrometheusMiddleware(a.Registry)
	if err != nil {
		log.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}

	// Register global middleware
	server.Use(recover.New())
	server.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	server.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	server.Use(middleware.Logger(log))
	server.Use(prom.Handler())

	handlers.RegisterRoutes(server, a.Routes())

	// Swagger UI with dynamic host and scheme
	server.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server_started", "addr", addr, "env", cfg.Env)
		errCh <- server.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
	}

	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("http shutdown", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown", "error", err)
	}
	if err := a.Close(); err != nil {
		log.Error("close resources", "error", err)
	}
	log.Info("server_stopped")
}
