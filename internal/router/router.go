package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/handler"
	appmiddleware "storefront/internal/middleware"
)

// Deps bundles what the router wires together.
type Deps struct {
	Config     *config.Config
	Log        *zap.Logger
	Identity   echo.MiddlewareFunc
	Health     *handler.HealthHandler
	Operations *handler.OperationHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestLogger(d.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{d.Config.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	e.GET("/healthz", d.Health.Check)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", d.Identity)
	api.POST("/operations", d.Operations.Execute)
}
