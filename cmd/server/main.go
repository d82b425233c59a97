package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kevin07696/donation-relay/internal/adapters/fiserv"
	"github.com/kevin07696/donation-relay/internal/config"
	paymentHandler "github.com/kevin07696/donation-relay/internal/handlers/payment"
	relayMiddleware "github.com/kevin07696/donation-relay/internal/middleware"
	"github.com/kevin07696/donation-relay/internal/services/relay"
	pkghttp "github.com/kevin07696/donation-relay/pkg/http"
	"github.com/kevin07696/donation-relay/pkg/middleware"
	"github.com/kevin07696/donation-relay/pkg/observability"
	"github.com/kevin07696/donation-relay/pkg/resilience"
	"github.com/kevin07696/donation-relay/pkg/security"
	"github.com/kevin07696/donation-relay/pkg/shutdown"
)

const version = "0.1.0"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.NewLogger(cfg.Logger.Level, cfg.Logger.Development || !cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting donation relay",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
	)

	ctx := context.Background()
	resolveGatewaySecret(ctx, cfg, logger)

	if err := cfg.Gateway.Validate(); err != nil {
		// Not fatal: every POST answers 500 until the settings are supplied
		logger.Warn("Payment gateway is not fully configured", zap.Error(err))
	}

	timeouts := resilience.NewTimeoutConfig(cfg.Gateway.Timeout)
	portsLogger := security.NewZapLogger(logger)

	httpClient := pkghttp.NewHTTPClient(pkghttp.FiservClientConfig(), timeouts.ExternalAPI)
	gateway := fiserv.NewPaymentAdapter(
		fiserv.AuthConfig{
			APIKey:    cfg.Gateway.APIKey,
			APISecret: cfg.Gateway.APISecret,
		},
		cfg.Gateway.PaymentsURL,
		httpClient,
		portsLogger,
	)

	relayService := relay.NewService(cfg.Gateway, gateway, portsLogger, timeouts)
	handler := paymentHandler.NewRelayHandler(relayService, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := newRouter(cfg, handler, rateLimiter, timeouts)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeouts.HTTPHandler + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	healthChecker := observability.NewHealthChecker(map[string]observability.CheckFunc{
		"gateway_config": func(ctx context.Context) error {
			return cfg.Gateway.Validate()
		},
	})
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, portsLogger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	// Components shut down in reverse registration order: relay server first
	shutdownManager := shutdown.NewManager(logger, 30*time.Second)
	shutdownManager.Register("metrics-server", func(ctx context.Context) error {
		return metricsServer.Shutdown(ctx)
	})
	shutdownManager.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	shutdownManager.RegisterHTTPServer("relay-server", httpServer)

	go func() {
		logger.Info("Relay server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	if err := shutdownManager.WaitForShutdown(ctx); err != nil {
		logger.Error("Shutdown completed with errors", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Servers stopped")
}

// newRouter mounts the relay handler behind the standard middleware chain
func newRouter(
	cfg *config.Config,
	handler http.Handler,
	rateLimiter *middleware.RateLimiter,
	timeouts *resilience.TimeoutConfig,
) http.Handler {
	cors := relayMiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	securityHeaders := relayMiddleware.NewSecurityHeaders(!cfg.IsProduction())

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observability.HTTPMetrics)
	r.Use(securityHeaders.Middleware)
	r.Use(cors.Middleware)
	r.Use(rateLimiter.Middleware)
	r.Use(chimiddleware.Timeout(timeouts.HTTPHandler))

	// The handler gates methods itself so every verb gets the JSON 405 envelope
	r.Handle("/fiserv-payment", handler)
	r.Handle("/api/v1/payments/fiserv", handler)

	return r
}
