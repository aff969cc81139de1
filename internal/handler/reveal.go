package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/access"
	"github.com/iliyamo/mission-reveal/internal/destination"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/middleware"
	"github.com/iliyamo/mission-reveal/internal/reveal"
)

// RevealHandler serves the reveal record to guests and lets the admin edit it.
type RevealHandler struct {
	Reveal    *reveal.Service
	Extractor *reveal.Extractor
	Dest      *destination.Service
	Log       zerolog.Logger
}

func NewRevealHandler(svc *reveal.Service, ex *reveal.Extractor, dest *destination.Service, log zerolog.Logger) *RevealHandler {
	return &RevealHandler{
		Reveal:    svc,
		Extractor: ex,
		Dest:      dest,
		Log:       log.With().Str("component", "reveal_handler").Logger(),
	}
}

// ---------- DTOs ----------

type secretFieldsReq struct {
	MissionaryName    string `json:"missionaryName"`
	MissionaryAddress string `json:"missionaryAddress"`
	MissionName       string `json:"missionName"`
	Language          string `json:"language"`
	TrainingCenter    string `json:"trainingCenter"`
	EntryDate         string `json:"entryDate"`
}

func (r secretFieldsReq) fields() fieldcrypt.Fields {
	return fieldcrypt.Fields{
		fieldcrypt.MissionaryName:    r.MissionaryName,
		fieldcrypt.MissionaryAddress: r.MissionaryAddress,
		fieldcrypt.MissionName:       r.MissionName,
		fieldcrypt.Language:          r.Language,
		fieldcrypt.TrainingCenter:    r.TrainingCenter,
		fieldcrypt.EntryDate:         r.EntryDate,
	}
}

type extractReq struct {
	Text string `json:"text"`
}

type confirmReq struct {
	secretFieldsReq
	RawText        string `json:"rawText"`
	NormalizedText string `json:"normalizedText"`
}

type nameReq struct {
	MissionaryName string `json:"missionaryName"`
}

type settingsReq struct {
	OpeningDate     string `json:"openingDate"`
	LocationAddress string `json:"locationAddress"`
	LocationURL     string `json:"locationUrl"`
}

// ---------- public ----------

// Get returns the projection for the caller. Guests see placeholders until
// the reveal opens; a logged in admin sees masked values instead.
func (h *RevealHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.GetProjection(ctx, middleware.IsAdmin(c))
	if err != nil {
		return domainError(c, h.Log, err)
	}
	if p == nil {
		return errJSON(c, http.StatusNotFound, "reveal record not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *RevealHandler) Countdown(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	cd, err := h.Reveal.Countdown(ctx)
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cd)
}

// Destination returns the map coordinates once the caller may see them.
func (h *RevealHandler) Destination(c echo.Context) error {
	entry, err := h.Dest.GetDestination(c.Request().Context(), middleware.IsAdmin(c))
	if err != nil {
		return domainError(c, h.Log, err)
	}
	if entry == nil {
		return errJSON(c, http.StatusNotFound, "destination not available")
	}
	return c.JSON(http.StatusOK, entry)
}

// ---------- admin ----------

func (h *RevealHandler) UpdateManual(c echo.Context) error {
	var req secretFieldsReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.UpdateManual(ctx, req.fields())
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Extract runs the model over the call letter and returns the suggested
// fields without storing anything.
func (h *RevealHandler) Extract(c echo.Context) error {
	var req extractReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	out, err := h.Extractor.Extract(c.Request().Context(), req.Text)
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"fields":         out.Fields,
		"rawText":        req.Text,
		"normalizedText": out.NormalizedText,
	})
}

// Confirm stores the reviewed extraction together with the source texts.
func (h *RevealHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.UpdateFromExtraction(ctx, req.fields(), req.RawText, req.NormalizedText)
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *RevealHandler) UpdateName(c echo.Context) error {
	var req nameReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.UpdateMissionaryNameOnly(ctx, req.MissionaryName)
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Toggle flips the revealed flag. Before the opening instant the request is
// refused and the countdown is returned so the UI can show how long is left.
func (h *RevealHandler) Toggle(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.ToggleReveal(ctx)
	if errors.Is(err, access.ErrRevealNotYetPermitted) {
		body := echo.Map{"error": "reveal is locked until the countdown ends"}
		if cd, cdErr := h.Reveal.Countdown(ctx); cdErr == nil {
			body["countdown"] = cd
		}
		return c.JSON(http.StatusConflict, body)
	}
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *RevealHandler) UpdateSettings(c echo.Context) error {
	var req settingsReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Reveal.UpdateEventSettings(ctx, req.OpeningDate, req.LocationAddress, req.LocationURL)
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}
