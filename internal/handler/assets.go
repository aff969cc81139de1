package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/storage"
)

// AssetsHandler hands out presigned URLs for the call letter PDF. A nil
// Presigner means S3 is not configured.
type AssetsHandler struct {
	Presigner *storage.Presigner
	Log       zerolog.Logger
}

func NewAssetsHandler(p *storage.Presigner, log zerolog.Logger) *AssetsHandler {
	return &AssetsHandler{Presigner: p, Log: log.With().Str("component", "assets_handler").Logger()}
}

func (h *AssetsHandler) UploadURL(c echo.Context) error {
	if h.Presigner == nil {
		return errJSON(c, http.StatusServiceUnavailable, storage.ErrNotConfigured.Error())
	}
	up, err := h.Presigner.PresignUpload(c.Request().Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("presign upload failed")
		return errJSON(c, http.StatusInternalServerError, "presign failed")
	}
	return c.JSON(http.StatusOK, up)
}

// ViewURL handles GET /v1/admin/assets/view-url?key=calls/...
func (h *AssetsHandler) ViewURL(c echo.Context) error {
	if h.Presigner == nil {
		return errJSON(c, http.StatusServiceUnavailable, storage.ErrNotConfigured.Error())
	}
	url, err := h.Presigner.PresignView(c.Request().Context(), c.QueryParam("key"))
	if errors.Is(err, storage.ErrInvalidKey) {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("presign view failed")
		return errJSON(c, http.StatusInternalServerError, "presign failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url, "expiresIn": int(storage.URLExpiry.Seconds())})
}
