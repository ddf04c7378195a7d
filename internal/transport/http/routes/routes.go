package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/infra/config"
	"github.com/campushub/identity-service/internal/infra/security"
	"github.com/campushub/identity-service/internal/transport/http/handlers"
	"github.com/campushub/identity-service/internal/transport/http/middleware"
	"github.com/campushub/identity-service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration  *usecase.RegistrationService
	Auth          *usecase.AuthService
	PasswordReset *usecase.PasswordResetService
	Sessions      *usecase.SessionService
	Profiles      *usecase.ProfileService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Signer      *security.TokenSigner
	RateLimiter *middleware.RateLimiter
	Dispatcher  handlers.NotificationDispatcher
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{"*"}))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	checks := map[string]handlers.ReadinessCheck{}
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	gateway := middleware.AuthGateway(deps.Signer, deps.Services.Sessions)

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(
			deps.Services.Registration,
			deps.Services.Auth,
			deps.Services.PasswordReset,
			deps.Dispatcher,
			deps.Config.OTP.Echo,
			deps.Logger,
		)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", withLimit(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts, authHandler.Register)...)
		authGroup.POST("/verify", authHandler.Verify)
		authGroup.POST("/login", withLimit(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, authHandler.Login)...)
		authGroup.POST("/login/verify", authHandler.LoginVerify)
		authGroup.POST("/forgot-password", withLimit(deps, "auth_forgot_ip", deps.Config.RateLimit.ForgotMaxAttempts, authHandler.ForgotPassword)...)
		authGroup.POST("/reset-password", authHandler.ResetPassword)

		profileHandler := handlers.NewProfileHandler(deps.Services.Profiles)
		profileGroup := api.Group("/profile")
		profileGroup.Use(gateway)
		profileGroup.GET("", profileHandler.Get)
		profileGroup.PUT("", profileHandler.Update)

		sessionHandler := handlers.NewSessionHandler(deps.Services.Sessions)
		sessionGroup := api.Group("/sessions")
		sessionGroup.Use(gateway)
		sessionGroup.POST("", sessionHandler.Create)
		sessionGroup.GET("", sessionHandler.List)
		sessionGroup.DELETE("/current", sessionHandler.RevokeCurrent)
		sessionGroup.DELETE("", sessionHandler.RevokeAll)
	}

	return r
}

// withLimit prepends a per-IP sliding-window limit to the handler when the
// limiter is configured; a non-positive limit disables it for that endpoint.
func withLimit(deps Dependencies, name string, limit int, handler gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule), handler}
}
