package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"typerace/internal/domain/event"
	"typerace/internal/repository/memory"
)

type fixture struct {
	bus    *memory.EventBus
	tokens *memory.TokenStore
	url    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{bus: memory.NewEventBus(), tokens: memory.NewTokenStore()}
	h := NewRealtimeHandler(zaptest.NewLogger(t).Sugar(), f.bus, f.tokens, func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(h.Serve))
	t.Cleanup(srv.Close)
	f.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return f
}

func (f fixture) connect(t *testing.T, lobbyID, username string) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.Issue(context.Background(), event.Grant{LobbyID: lobbyID, Username: username}, time.Minute)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) event.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := event.Decode(raw)
	require.NoError(t, err)
	return env
}

func TestRealtime_RelaysLobbyEvents(t *testing.T) {
	f := newFixture(t)
	conn := f.connect(t, "l1", "ann")

	raw, err := event.Encode(event.TypeGameStarted, event.GameStarted{GameID: "g1", LobbyID: "l1", Content: "type me"})
	require.NoError(t, err)
	require.NoError(t, f.bus.Publish(context.Background(), event.Topic("l1"), raw))

	env := readEnvelope(t, conn)
	assert.Equal(t, event.TypeGameStarted, env.Type)
	var started event.GameStarted
	require.NoError(t, env.Into(&started))
	assert.Equal(t, "type me", started.Content)
}

func TestRealtime_PublishesProgressAsGrantHolder(t *testing.T) {
	f := newFixture(t)
	ann := f.connect(t, "l1", "ann")
	bob := f.connect(t, "l1", "bob")

	require.NoError(t, ann.WriteJSON(ProgressMessage{Wpm: 72, Progress: 40}))

	env := readEnvelope(t, bob)
	assert.Equal(t, event.TypePlayerProgress, env.Type)
	var progress event.PlayerProgress
	require.NoError(t, env.Into(&progress))
	assert.Equal(t, "ann", progress.Username)
	assert.Equal(t, "l1", progress.LobbyID)
	assert.Equal(t, 40.0, progress.Progress)
}

func TestRealtime_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(context.Background(), event.Grant{LobbyID: "l1", Username: "ann"}, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRealtime_DisconnectReleasesSubscription(t *testing.T) {
	f := newFixture(t)
	conn := f.connect(t, "l1", "ann")
	assert.Equal(t, 1, f.bus.Subscribers(event.Topic("l1")))

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return f.bus.Subscribers(event.Topic("l1")) == 0 }, 2*time.Second, 10*time.Millisecond)
}
