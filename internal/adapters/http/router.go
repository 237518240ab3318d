package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-vault/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-vault/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-vault/internal/platform/config"
	"github.com/jsamuelsen/quote-vault/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// AdminRole is the role required for destructive admin endpoints.
const AdminRole = "admin"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AuthConfig contains authentication header configuration.
	AuthConfig *config.AuthConfig

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler handles the quote API endpoints.
	QuoteHandler *handlers.QuoteHandler

	// Timeout is the default request timeout.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. Timeout - request deadline (applied per-route or globally)
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/ (public API): Quote endpoints
//   - /api/v1/admin/ (admin API): Destructive operations, admin role required
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	// Apply global middleware in order
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(cfg.Logger),
	)

	// Register health endpoints (no auth, no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)

		admin := apiV1.Group("/admin")
		admin.Use(
			middleware.RequireAuth(cfg.AuthConfig),
			middleware.RequireRole(cfg.AuthConfig, AdminRole),
		)
		admin.POST("/reset", cfg.QuoteHandler.ResetStore)
	}
}

// SetupMinimalRouter sets up a minimal router with just health endpoints.
// Useful for testing or lightweight deployments.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with sensible defaults.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AuthConfig:    authCfg,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
