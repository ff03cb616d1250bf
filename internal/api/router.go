package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/useraccounts/accounts-api/internal/api/handler"
	"github.com/useraccounts/accounts-api/internal/api/middleware"
	"github.com/useraccounts/accounts-api/internal/core/ports"
)

// Deps carries everything the router needs. Registerer and Gatherer are
// optional; without them no request metrics or /metrics route are mounted.
type Deps struct {
	AuthService    ports.AuthService
	AccountService ports.AccountService
	Log            zerolog.Logger
	Readiness      map[string]handler.Pinger
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	if d.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "accounts",
			Subsystem:  "http",
			Registerer: d.Registerer,
		}))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.AccountService)
	userHandler := handler.NewUserHandler(d.AccountService)
	authMiddleware := middleware.Auth(d.AuthService)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/logout", authHandler.Logout, authMiddleware)

	// --- Own profile ---
	e.GET("/users", userHandler.Get, authMiddleware)
	e.PUT("/users", userHandler.Update, authMiddleware)
	e.DELETE("/users", userHandler.Delete, authMiddleware)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Readiness)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	if d.Gatherer != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
