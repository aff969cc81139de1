package handler // handler defines the HTTP handlers of the reveal API

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/access"
	"github.com/iliyamo/mission-reveal/internal/destination"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/llm"
	"github.com/iliyamo/mission-reveal/internal/reveal"
)

// requestTimeout bounds database work per request. Model calls get their own
// timeout from the provider client.
const requestTimeout = 5 * time.Second

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// domainError maps service errors to responses. Unknown errors and
// decryption failures are logged and answered with 500; a failed decryption
// is never reported as missing data.
func domainError(c echo.Context, log zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, reveal.ErrRecordAbsent):
		return errJSON(c, http.StatusNotFound, "reveal record not found")
	case errors.Is(err, reveal.ErrInvalidOpeningDate):
		return errJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, reveal.ErrEmptySourceText):
		return errJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, reveal.ErrInvalidExtraction), errors.Is(err, destination.ErrInvalidGeocodeResponse):
		log.Warn().Err(err).Str("route", c.Path()).Msg("unusable provider response")
		return errJSON(c, http.StatusBadGateway, "provider returned an unusable response")
	case errors.Is(err, llm.ErrProviderUnavailable):
		log.Warn().Err(err).Str("route", c.Path()).Msg("provider unavailable")
		return errJSON(c, http.StatusBadGateway, "provider unavailable")
	case errors.Is(err, fieldcrypt.ErrDecryptionFailed):
		log.Error().Err(err).Str("route", c.Path()).Msg("stored secret failed to decrypt")
		return errJSON(c, http.StatusInternalServerError, "stored data could not be decrypted")
	case errors.Is(err, access.ErrRevealNotYetPermitted):
		return errJSON(c, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("route", c.Path()).Msg("request failed")
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
}
