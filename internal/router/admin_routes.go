package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/config"
	"github.com/iliyamo/mission-reveal/internal/handler"
	"github.com/iliyamo/mission-reveal/internal/middleware"
	"github.com/iliyamo/mission-reveal/internal/utils"
)

// AdminHandlers groups the handlers mounted under /v1/admin.
type AdminHandlers struct {
	Reveal    *handler.RevealHandler
	Guestbook *handler.GuestbookHandler
	Assets    *handler.AssetsHandler
}

// RegisterAdmin registers admin-only endpoints. All routes require a valid
// JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string, cc config.CacheConfig, rdb *redis.Client, log zerolog.Logger) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	g.PUT("/reveal", h.Reveal.UpdateManual)
	g.POST("/reveal/extract", h.Reveal.Extract)
	g.POST("/reveal/confirm", h.Reveal.Confirm)
	g.PATCH("/reveal/name", h.Reveal.UpdateName)
	g.POST("/reveal/toggle", h.Reveal.Toggle)
	g.PUT("/reveal/settings", h.Reveal.UpdateSettings)

	// Moderation changes the public list, so drop the cached pages.
	g.DELETE("/guestbook/:id", h.Guestbook.Delete, middleware.PurgeCache(cc, rdb, log))

	g.POST("/assets/upload-url", h.Assets.UploadURL)
	g.GET("/assets/view-url", h.Assets.ViewURL)
}
