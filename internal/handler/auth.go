package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/utils"
)

// AuthHandler logs the family admin in. There is one admin account, checked
// against a bcrypt hash from the environment.
type AuthHandler struct {
	PasswordHash string
	JWTSecret    string
	AccessTTL    time.Duration
	Log          zerolog.Logger
	now          func() time.Time
}

func NewAuthHandler(passwordHash, jwtSecret string, ttl time.Duration, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		PasswordHash: passwordHash,
		JWTSecret:    jwtSecret,
		AccessTTL:    ttl,
		Log:          log.With().Str("component", "auth").Logger(),
		now:          time.Now,
	}
}

type loginReq struct {
	Password string `json:"password"`
}

type loginResp struct {
	Role   string            `json:"role"`
	Access utils.AccessToken `json:"access"`
}

// Login verifies the admin password and returns a signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "password required")
	}
	if !utils.VerifyPassword(h.PasswordHash, req.Password) {
		h.Log.Warn().Str("ip", c.RealIP()).Msg("admin login rejected")
		return errJSON(c, http.StatusUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAdminToken(h.JWTSecret, h.AccessTTL, h.now())
	if err != nil {
		h.Log.Error().Err(err).Msg("issue access token failed")
		return errJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	h.Log.Info().Str("ip", c.RealIP()).Msg("admin logged in")
	return c.JSON(http.StatusOK, loginResp{Role: utils.RoleAdmin, Access: access})
}
