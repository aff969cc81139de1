package middleware

// identity.go exposes what the auth middleware learned about the caller.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mission-reveal/internal/utils"
)

// IsAdmin reports whether JWTAuth or OptionalJWT accepted an admin token.
func IsAdmin(c echo.Context) bool {
	role, ok := c.Get(ctxRole).(string)
	return ok && role == utils.RoleAdmin
}

// userID returns the token subject, or "anon" for guests.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
