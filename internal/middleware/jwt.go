package middleware // middleware holds reusable HTTP middleware for the echo router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mission-reveal/internal/utils"
)

// Context keys set by the auth middleware.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

func setClaims(c echo.Context, secret, raw string) bool {
	claims, err := utils.ParseToken(secret, raw)
	if err != nil {
		return false
	}
	c.Set(ctxUserID, claims["sub"])
	c.Set(ctxRole, claims["role"])
	return true
}

// JWTAuth validates a Bearer access token and injects its subject and role
// claims into the context. Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !setClaims(c, secret, raw) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for public routes: a valid token upgrades the
// caller, anything else continues as a guest.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				setClaims(c, secret, raw)
			}
			return next(c)
		}
	}
}
