package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/config"
	"github.com/iliyamo/mission-reveal/internal/handler"
	"github.com/iliyamo/mission-reveal/internal/middleware"
)

// RegisterChat registers the hint game. Only sending a message reaches the
// model, so only that route is rate limited, per client IP.
func RegisterChat(e *echo.Echo, h *handler.ChatHandler, rl config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) {
	g := e.Group("/v1/chat/:session")
	g.POST("/init", h.Init)
	g.GET("", h.Get)
	g.POST("/messages", h.Send, middleware.NewTokenBucket(rl, rdb, log))
	g.DELETE("", h.Delete)
}

// RegisterGuestbook registers the public guestbook. Reads are served from
// the Redis response cache and every successful write purges it.
func RegisterGuestbook(e *echo.Echo, h *handler.GuestbookHandler, cc config.CacheConfig, rl config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) {
	e.GET("/v1/guestbook", h.List, middleware.NewRedisCache(cc, rdb))
	e.POST("/v1/guestbook", h.Create,
		middleware.NewTokenBucket(rl, rdb, log),
		middleware.PurgeCache(cc, rdb, log),
	)
}
