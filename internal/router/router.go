package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/mission-reveal/internal/handler"
	"github.com/iliyamo/mission-reveal/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints: the
// health check used by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth exposes the admin login. There is no refresh flow; the admin
// logs in again when the access token expires.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
}

// RegisterPublic registers the guest facing reveal endpoints. A valid admin
// token is honoured when present so the same page can render the masked
// preview for the admin, but it is never required.
func RegisterPublic(e *echo.Echo, r *handler.RevealHandler, jwtSecret string) {
	g := e.Group("/v1/reveal", middleware.OptionalJWT(jwtSecret))
	g.GET("", r.Get)
	g.GET("/countdown", r.Countdown)
	g.GET("/destination", r.Destination)
}
