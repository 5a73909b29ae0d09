package player

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"typerace/internal/domain/player"
	"typerace/internal/middleware"
	"typerace/internal/repository/memory"
	"typerace/internal/usecase/optimistic"
	playeruc "typerace/internal/usecase/player"
)

var identities = map[string]player.Identity{
	"ann":   {UserID: "u1", Username: "ann", Email: "ann@example.com"},
	"clash": {UserID: "u2", Username: "ann", Email: "other@example.com"},
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	uc := playeruc.NewPlayerUseCase(memory.NewPlayerStore(), log, optimistic.Policy{Attempts: 5, Interval: time.Millisecond})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := identities[r.Header.Get("X-User")]; ok {
				r = r.WithContext(middleware.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	NewPlayerHandler(log, uc).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodePlayer(t *testing.T, rec *httptest.ResponseRecorder) player.Player {
	t.Helper()
	var envelope struct {
		Body player.Player `json:"Body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Body
}

func TestRegisterConfirmGet(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/players", "ann")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u1", decodePlayer(t, rec).ID)

	rec = do(t, h, http.MethodPost, "/players/confirm", "ann")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodePlayer(t, rec).UserConfirmed)

	rec = do(t, h, http.MethodGet, "/players/ann", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodePlayer(t, rec).UserConfirmed)
}

func TestRegister_Errors(t *testing.T) {
	h := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/players", "").Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/players", "ann").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/players", "clash").Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/players/ghost", "").Code)
}
