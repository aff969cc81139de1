package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mission-reveal/internal/destination"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/guestbook"
	"github.com/iliyamo/mission-reveal/internal/hints"
	"github.com/iliyamo/mission-reveal/internal/kv"
	"github.com/iliyamo/mission-reveal/internal/llm"
	"github.com/iliyamo/mission-reveal/internal/middleware"
	"github.com/iliyamo/mission-reveal/internal/model"
	"github.com/iliyamo/mission-reveal/internal/repository"
	"github.com/iliyamo/mission-reveal/internal/reveal"
	"github.com/iliyamo/mission-reveal/internal/utils"
)

const jwtSecret = "handler-secret"

// 2026-03-15T10:00 at UTC-6 is 16:00 UTC; the clock sits one hour before.
var clock = time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC)

type memRevealRepo struct {
	rec *model.Revelation
}

func (m *memRevealRepo) FindSingleton(context.Context) (*model.Revelation, error) {
	if m.rec == nil {
		return nil, repository.ErrRevelationNotFound
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memRevealRepo) UpsertSingleton(_ context.Context, p model.RevelationPatch) (*model.Revelation, error) {
	if m.rec == nil {
		m.rec = &model.Revelation{ID: "rec-1"}
	}
	for dst, v := range map[*string]*string{
		&m.rec.MissionaryName:    p.MissionaryName,
		&m.rec.MissionaryAddress: p.MissionaryAddress,
		&m.rec.MissionName:       p.MissionName,
		&m.rec.Language:          p.Language,
		&m.rec.TrainingCenter:    p.TrainingCenter,
		&m.rec.EntryDate:         p.EntryDate,
		&m.rec.RawText:           p.RawText,
		&m.rec.NormalizedText:    p.NormalizedText,
		&m.rec.OpeningDate:       p.OpeningDate,
		&m.rec.LocationAddress:   p.LocationAddress,
		&m.rec.LocationURL:       p.LocationURL,
	} {
		if v != nil {
			*dst = *v
		}
	}
	return m.FindSingleton(context.Background())
}

func (m *memRevealRepo) ToggleRevealed(_ context.Context, id string) (*model.Revelation, error) {
	if m.rec == nil || m.rec.ID != id {
		return nil, repository.ErrRevelationNotFound
	}
	m.rec.IsRevealed = !m.rec.IsRevealed
	return m.FindSingleton(context.Background())
}

type fixedGeocoder struct{ calls int }

func (g *fixedGeocoder) Geocode(context.Context, string, string) (destination.Coordinates, error) {
	g.calls++
	return destination.Coordinates{Lat: -12.05, Lng: -77.04}, nil
}

type env struct {
	e      *echo.Echo
	repo   *memRevealRepo
	reveal *reveal.Service
}

// newEnv mounts the handlers the way the router does, minus Redis.
func newEnv(t *testing.T, chat llm.CompleterFunc) *env {
	t.Helper()
	codec, err := fieldcrypt.New("handler-test-key")
	require.NoError(t, err)
	log := zerolog.Nop()
	now := func() time.Time { return clock }

	repo := &memRevealRepo{}
	rs := reveal.NewService(repo, codec, nil, log).WithClock(now)
	store := kv.NewMemoryStore(now)
	dest := destination.NewService(rs, store, &fixedGeocoder{}, "", log).WithClock(now)
	rh := NewRevealHandler(rs, reveal.NewExtractor(llm.CompleterFunc(func(context.Context, []llm.Message) (llm.Completion, error) {
		return llm.Completion{Text: `{"missionName":"Misión Perú Lima Sur","normalizedText":"ok"}`}, nil
	})), dest, log)
	ch := NewChatHandler(hints.NewService(store, chat, log), rs, log)

	e := echo.New()
	pub := e.Group("/v1/reveal", middleware.OptionalJWT(jwtSecret))
	pub.GET("", rh.Get)
	pub.GET("/countdown", rh.Countdown)
	pub.GET("/destination", rh.Destination)
	e.POST("/v1/chat/:session/init", ch.Init)
	e.GET("/v1/chat/:session", ch.Get)
	e.POST("/v1/chat/:session/messages", ch.Send)
	e.DELETE("/v1/chat/:session", ch.Delete)
	adm := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleAdmin))
	adm.PUT("/reveal", rh.UpdateManual)
	adm.POST("/reveal/extract", rh.Extract)
	adm.POST("/reveal/confirm", rh.Confirm)
	adm.PATCH("/reveal/name", rh.UpdateName)
	adm.POST("/reveal/toggle", rh.Toggle)
	adm.PUT("/reveal/settings", rh.UpdateSettings)

	return &env{e: e, repo: repo, reveal: rs}
}

func adminAuth(t *testing.T) string {
	t.Helper()
	tok, err := utils.NewAdminToken(jwtSecret, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func call(e *echo.Echo, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

const manualBody = `{"missionaryName":"Elder Ruiz","missionaryAddress":"Calle 1","missionName":"Misión Perú Lima Sur","language":"Español","trainingCenter":"CCM Lima","entryDate":"2026-06-01"}`

func seed(t *testing.T, env *env) {
	t.Helper()
	rec := call(env.e, http.MethodPut, "/v1/admin/reveal", manualBody, adminAuth(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(env.e, http.MethodPut, "/v1/admin/reveal/settings",
		`{"openingDate":"2026-03-15T10:00","locationAddress":"Capilla","locationUrl":"https://maps.example/x"}`, adminAuth(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestReveal_GetProjection(t *testing.T) {
	env := newEnv(t, nil)

	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodGet, "/v1/reveal", "", "").Code)

	seed(t, env)

	guest := decode(t, call(env.e, http.MethodGet, "/v1/reveal", "", ""))
	assert.Equal(t, "hidden", guest["state"])
	assert.Equal(t, false, guest["hasData"])
	assert.Equal(t, reveal.HiddenPlaceholder, guest["missionName"])
	assert.Nil(t, guest["rawText"])
	assert.Equal(t, "Capilla", guest["locationAddress"])

	admin := decode(t, call(env.e, http.MethodGet, "/v1/reveal", "", adminAuth(t)))
	assert.Equal(t, "masked", admin["state"])
	assert.Equal(t, reveal.MaskedPlaceholder, admin["missionName"])

	// Stored values are ciphertext, never the plaintext.
	assert.NotContains(t, env.repo.rec.MissionName, "Perú")
}

func TestReveal_AdminRoutesRequireToken(t *testing.T) {
	env := newEnv(t, nil)
	assert.Equal(t, http.StatusUnauthorized, call(env.e, http.MethodPut, "/v1/admin/reveal", manualBody, "").Code)
	assert.Nil(t, env.repo.rec)
}

func TestReveal_ToggleLockedShowsCountdown(t *testing.T) {
	env := newEnv(t, nil)
	seed(t, env)

	rec := call(env.e, http.MethodPost, "/v1/admin/reveal/toggle", "", adminAuth(t))
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["error"], "countdown")
	cd := body["countdown"].(map[string]any)
	assert.EqualValues(t, 3600, cd["secondsLeft"])
	assert.False(t, env.repo.rec.IsRevealed)
}

func TestReveal_OpenAfterToggle(t *testing.T) {
	env := newEnv(t, nil)
	seed(t, env)
	env.reveal.WithClock(func() time.Time { return clock.Add(2 * time.Hour) })

	rec := call(env.e, http.MethodPost, "/v1/admin/reveal/toggle", "", adminAuth(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.repo.rec.IsRevealed)

	guest := decode(t, call(env.e, http.MethodGet, "/v1/reveal", "", ""))
	assert.Equal(t, "open", guest["state"])
	assert.Equal(t, "Misión Perú Lima Sur", guest["missionName"])
	assert.Equal(t, "", guest["rawText"])
}

func TestReveal_SettingsRejectBadDate(t *testing.T) {
	env := newEnv(t, nil)
	seed(t, env)

	rec := call(env.e, http.MethodPut, "/v1/admin/reveal/settings", `{"openingDate":"next sunday"}`, adminAuth(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReveal_DecryptionFailureIs500(t *testing.T) {
	env := newEnv(t, nil)
	seed(t, env)
	// The name is decrypted in every state, so a bad blob surfaces even for guests.
	env.repo.rec.MissionaryName = "garbage"

	rec := call(env.e, http.MethodGet, "/v1/reveal", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), reveal.HiddenPlaceholder)
}

func TestReveal_ExtractThenConfirm(t *testing.T) {
	env := newEnv(t, nil)

	assert.Equal(t, http.StatusBadRequest, call(env.e, http.MethodPost, "/v1/admin/reveal/extract", `{"text":"  "}`, adminAuth(t)).Code)

	rec := call(env.e, http.MethodPost, "/v1/admin/reveal/extract", `{"text":"Querido Elder Ruiz"}`, adminAuth(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, env.repo.rec, "preview must not store anything")

	rec = call(env.e, http.MethodPost, "/v1/admin/reveal/confirm",
		`{"missionName":"Misión Perú Lima Sur","rawText":"Querido Elder Ruiz","normalizedText":"ok"}`, adminAuth(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, env.repo.rec)

	rec = call(env.e, http.MethodPatch, "/v1/admin/reveal/name", `{"missionaryName":"Hermana Ruiz"}`, adminAuth(t))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReveal_Destination(t *testing.T) {
	env := newEnv(t, nil)
	seed(t, env)

	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodGet, "/v1/reveal/destination", "", "").Code)

	// Revealed but before the opening instant: only the admin may look.
	env.repo.rec.IsRevealed = true
	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodGet, "/v1/reveal/destination", "", "").Code)
	rec := call(env.e, http.MethodGet, "/v1/reveal/destination", "", adminAuth(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lat":-12.05,"lng":-77.04,"missionName":"Misión Perú Lima Sur"}`, rec.Body.String())
}

func TestChat_Flow(t *testing.T) {
	var fail bool
	env := newEnv(t, func(_ context.Context, tr []llm.Message) (llm.Completion, error) {
		if fail {
			return llm.Completion{}, llm.ErrProviderUnavailable
		}
		return llm.Completion{Text: "[PISTA] Allí se habla español."}, nil
	})

	// No secret yet, nothing to play.
	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodPost, "/v1/chat/abc/init", "", "").Code)
	seed(t, env)

	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodGet, "/v1/chat/abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, call(env.e, http.MethodPost, "/v1/chat/bad$id/init", "", "").Code)

	rec := call(env.e, http.MethodPost, "/v1/chat/abc/init", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"initialized":true`)
	assert.NotContains(t, rec.Body.String(), "Lima Sur", "system prompt must stay server side")

	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodPost, "/v1/chat/other/messages", `{"message":"hola"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, call(env.e, http.MethodPost, "/v1/chat/abc/messages", `{"message":"   "}`, "").Code)

	rec = call(env.e, http.MethodPost, "/v1/chat/abc/messages", `{"message":"¿Dónde?"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Allí se habla español.","hintCount":1,"done":false}`, rec.Body.String())

	fail = true
	rec = call(env.e, http.MethodPost, "/v1/chat/abc/messages", `{"message":"¿Otra?"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"`+hints.ApologyReply+`","hintCount":1,"done":false}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, call(env.e, http.MethodDelete, "/v1/chat/abc", "", "").Code)
	assert.Equal(t, http.StatusNotFound, call(env.e, http.MethodGet, "/v1/chat/abc", "", "").Code)
}

type gbStore struct {
	rows []model.GuestMessage
}

func (g *gbStore) Create(_ context.Context, m *model.GuestMessage) error {
	m.ID = uint64(len(g.rows) + 1)
	g.rows = append(g.rows, *m)
	return nil
}

func (g *gbStore) List(context.Context, string, int) ([]model.GuestMessage, error) {
	return g.rows, nil
}

func (g *gbStore) Delete(_ context.Context, id uint64) error {
	if id > uint64(len(g.rows)) {
		return repository.ErrGuestMessageNotFound
	}
	return nil
}

func TestGuestbook(t *testing.T) {
	h := NewGuestbookHandler(guestbook.NewService(&gbStore{}, zerolog.Nop()), zerolog.Nop())
	e := echo.New()
	e.GET("/v1/guestbook", h.List)
	e.POST("/v1/guestbook", h.Create)
	e.DELETE("/v1/guestbook/:id", h.Delete)

	rec := call(e, http.MethodPost, "/v1/guestbook", `{"kind":"prediction","authorName":"Tía Ana","body":"¡Japón!","guessedPlace":"Tokio"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Tokio", decode(t, rec)["guessedPlace"])

	rec = call(e, http.MethodPost, "/v1/guestbook", `{"kind":"advice","authorName":"","body":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "authorName")

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/v1/guestbook?limit=ten", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/v1/guestbook?kind=gossip", "", "").Code)
	rec = call(e, http.MethodGet, "/v1/guestbook?kind=prediction&limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodDelete, "/v1/guestbook/x", "", "").Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodDelete, "/v1/guestbook/9", "", "").Code)
	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, "/v1/guestbook/1", "", "").Code)
}

func TestAssets_NotConfigured(t *testing.T) {
	h := NewAssetsHandler(nil, zerolog.Nop())
	e := echo.New()
	e.POST("/upload-url", h.UploadURL)
	e.GET("/view-url", h.ViewURL)

	assert.Equal(t, http.StatusServiceUnavailable, call(e, http.MethodPost, "/upload-url", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, call(e, http.MethodGet, "/view-url?key=calls/a.pdf", "", "").Code)
}

func TestAuth_Login(t *testing.T) {
	hash, err := utils.HashPassword("familia2026", 4)
	require.NoError(t, err)
	h := NewAuthHandler(hash, jwtSecret, time.Hour, zerolog.Nop())
	e := echo.New()
	e.POST("/v1/auth/login", h.Login)

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodPost, "/v1/auth/login", `{}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/v1/auth/login", `{"password":"nope"}`, "").Code)

	rec := call(e, http.MethodPost, "/v1/auth/login", `{"password":"familia2026"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, utils.RoleAdmin, resp.Role)

	claims, err := utils.ParseToken(jwtSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAdmin, claims["role"])
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", NewHealthHandler(pinger{}).Health)
	e.GET("/down", NewHealthHandler(pinger{err: errors.New("gone")}).Health)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/ok", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, call(e, http.MethodGet, "/down", "", "").Code)
}
