package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/hints"
	"github.com/iliyamo/mission-reveal/internal/llm"
)

// MissionSource supplies the decrypted mission details for a new session.
// *reveal.Service implements it.
type MissionSource interface {
	MissionForHints(ctx context.Context) (*hints.MissionData, error)
}

// ChatHandler exposes the hint game. Sessions are addressed by a client
// generated id in the path.
type ChatHandler struct {
	Hints   *hints.Service
	Mission MissionSource
	Log     zerolog.Logger
}

func NewChatHandler(h *hints.Service, mission MissionSource, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{Hints: h, Mission: mission, Log: log.With().Str("component", "chat_handler").Logger()}
}

type chatMessageReq struct {
	Message string `json:"message"`
}

func (h *ChatHandler) chatError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, hints.ErrInvalidSession), errors.Is(err, hints.ErrEmptyMessage):
		return errJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, hints.ErrSessionNotFound):
		return errJSON(c, http.StatusNotFound, err.Error())
	}
	return domainError(c, h.Log, err)
}

// Init creates the session on first visit and returns the transcript.
func (h *ChatHandler) Init(c echo.Context) error {
	id := c.Param("session")
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Existing sessions are returned as is, without touching the secret.
	view, err := h.Hints.GetSession(ctx, id)
	if err != nil {
		return h.chatError(c, err)
	}
	if view != nil {
		return c.JSON(http.StatusOK, hints.InitResult{Initialized: true, View: *view})
	}

	mission, err := h.Mission.MissionForHints(ctx)
	if err != nil {
		return h.chatError(c, err)
	}
	res, err := h.Hints.InitSession(ctx, id, *mission)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	view, err := h.Hints.GetSession(ctx, c.Param("session"))
	if err != nil {
		return h.chatError(c, err)
	}
	if view == nil {
		return errJSON(c, http.StatusNotFound, hints.ErrSessionNotFound.Error())
	}
	return c.JSON(http.StatusOK, view)
}

// Send plays one turn. When the model cannot be reached the guest gets an
// apology as a normal reply and the counters stay where they were.
func (h *ChatHandler) Send(c echo.Context) error {
	var req chatMessageReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid body")
	}
	id := c.Param("session")

	reply, err := h.Hints.SendMessage(c.Request().Context(), id, req.Message)
	if errors.Is(err, llm.ErrProviderUnavailable) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()
		view, vErr := h.Hints.GetSession(ctx, id)
		if vErr != nil || view == nil {
			return h.chatError(c, err)
		}
		return c.JSON(http.StatusOK, hints.Reply{Reply: hints.ApologyReply, HintCount: view.HintCount, Done: view.Done})
	}
	if err != nil {
		return h.chatError(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// Delete resets the game for this browser.
func (h *ChatHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Hints.DeleteSession(ctx, c.Param("session")); err != nil {
		return h.chatError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
