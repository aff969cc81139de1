package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/guestbook"
	"github.com/iliyamo/mission-reveal/internal/repository"
)

type GuestbookHandler struct {
	Guestbook *guestbook.Service
	Log       zerolog.Logger
}

func NewGuestbookHandler(svc *guestbook.Service, log zerolog.Logger) *GuestbookHandler {
	return &GuestbookHandler{Guestbook: svc, Log: log.With().Str("component", "guestbook_handler").Logger()}
}

type guestMessageReq struct {
	Kind         string `json:"kind"`
	AuthorName   string `json:"authorName"`
	Body         string `json:"body"`
	GuessedPlace string `json:"guessedPlace"`
}

func isValidationErr(err error) bool {
	for _, target := range []error{
		guestbook.ErrInvalidKind,
		guestbook.ErrAuthorMissing,
		guestbook.ErrAuthorTooLong,
		guestbook.ErrBodyMissing,
		guestbook.ErrBodyTooLong,
		guestbook.ErrPlaceTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// List handles GET /v1/guestbook?kind=&limit=.
func (h *GuestbookHandler) List(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "limit must be a number")
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.Guestbook.List(ctx, c.QueryParam("kind"), limit)
	if isValidationErr(err) {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *GuestbookHandler) Create(c echo.Context) error {
	var req guestMessageReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Guestbook.Post(ctx, guestbook.Entry{
		Kind:         req.Kind,
		AuthorName:   req.AuthorName,
		Body:         req.Body,
		GuessedPlace: req.GuessedPlace,
	})
	if isValidationErr(err) {
		return errJSON(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return domainError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Delete is admin only.
func (h *GuestbookHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Guestbook.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrGuestMessageNotFound) {
			return errJSON(c, http.StatusNotFound, "message not found")
		}
		return domainError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
