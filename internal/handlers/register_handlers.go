package handlers

import (
	"fmt"
	"net/http"

	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/SscSPs/org_funding_app/internal/platform/config"
	"github.com/SscSPs/org_funding_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

// RouteDeps carries the optional HTTP-layer collaborators.
type RouteDeps struct {
	RateLimiter *limiter.Limiter
	Posthog     *utils.PosthogClientWrapper
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidations(v); err != nil {
			return fmt.Errorf("failed to register validations: %w", err)
		}
	}

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	public := r.Group("/api/v1/public")
	if deps.RateLimiter != nil {
		public.Use(middleware.RateLimit(deps.RateLimiter))
	}
	registerPublicRoutes(public, services.Projection)

	setupAPIV1Routes(r, cfg, services, deps)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	if deps.RateLimiter != nil {
		v1.Use(middleware.RateLimit(deps.RateLimiter))
	}
	v1.Use(middleware.PosthogMiddleware(deps.Posthog))

	registerLedgerRoutes(v1, services.Ledger)
	registerProjectRequestRoutes(v1, services.Requests, services.Approval)
	registerDashboardRoutes(v1, services.Projection)
	registerReportingRoutes(v1, services.Reporting)
}
