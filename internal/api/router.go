package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/plan2protect/platform/docs"
	"github.com/plan2protect/platform/internal/api/handler"
	"github.com/plan2protect/platform/internal/api/middleware"
	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// Services are the use cases the router exposes.
type Services struct {
	Accounts    ports.AccountService
	Assessments ports.AssessmentService
	Analytics   ports.AnalyticsService
	Identity    ports.IdentityProvider

	// Readiness serves GET /health/ready. Nil disables the route.
	Readiness echo.HandlerFunc

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("25M"))
	e.Use(metricsMiddleware(svc.Registry))

	// --- Handlers ---
	users := handler.NewUserHandler(svc.Accounts)
	assessments := handler.NewAssessmentHandler(svc.Assessments)
	analytics := handler.NewAnalyticsHandler(svc.Analytics)
	auth := handler.NewAuthHandler(svc.Identity)
	adminOnly := []echo.MiddlewareFunc{middleware.Auth(svc.Identity), middleware.RBAC(domain.RoleAdmin)}

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if svc.Readiness != nil {
		e.GET("/health/ready", svc.Readiness)
	}
	e.GET("/metrics", metricsHandler(svc.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Administrator auth ---
	e.POST("/auth/admin/signup", auth.SignUp)
	e.POST("/auth/admin/login", auth.Login)
	e.POST("/auth/logout", auth.Logout)
	e.GET("/auth/me", auth.Me, middleware.Auth(svc.Identity))

	api := e.Group("/api")
	api.GET("/plans", handler.Plans)
	api.GET("/check-admin/:email", users.CheckAdmin)
	api.GET("/user-limits/:id", users.Limits)

	// --- Users ---
	api.POST("/users/create", users.Create)
	api.POST("/users/login", users.Login)
	api.GET("/users", analytics.Users, adminOnly...)
	api.GET("/users/id/:id", users.GetByID)
	api.GET("/users/:email", users.GetByEmail)
	api.PUT("/users/:id/plan", users.UpgradePlan)
	api.PUT("/users/:id/profile", users.UpdateProfile)
	api.POST("/users/:id/update-storage", users.UpdateStorage)
	api.POST("/users/:id/record-assessment", users.RecordAssessment)

	// --- Assessments ---
	api.POST("/assessments/create", assessments.Create)
	api.GET("/assessments/user/:id", assessments.ListByOwner)
	api.GET("/assessments/:id", assessments.Get)
	api.PUT("/assessments/:id/complete", assessments.Complete)
	api.PUT("/assessments/:id/fail", assessments.Fail)

	// --- Analytics ---
	api.GET("/analytics/overview", analytics.Overview, adminOnly...)
	api.GET("/analytics/users", analytics.Users, adminOnly...)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "plan2protect"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
