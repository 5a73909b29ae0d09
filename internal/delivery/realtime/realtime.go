// Package realtime bridges a lobby's event topic to browser websockets.
// Clients authenticate with a disposable token from /lobbies/{id}/token,
// receive every envelope published on the lobby topic and send their own
// typing progress, which is republished as PlayerProgress.
package realtime

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"typerace/internal/domain/event"
	errs "typerace/internal/errors"
	"typerace/internal/httpresponse"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	outboundBuffer = 64
)

type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (io.Closer, error)
}

type TokenRedeemer interface {
	Redeem(ctx context.Context, token string) (event.Grant, error)
}

type RealtimeHandler struct {
	log      *zap.SugaredLogger
	bus      Bus
	tokens   TokenRedeemer
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(log *zap.SugaredLogger, bus Bus, tokens TokenRedeemer, checkOrigin func(r *http.Request) bool) *RealtimeHandler {
	return &RealtimeHandler{
		log:    log,
		bus:    bus,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ProgressMessage is what a client sends while typing.
type ProgressMessage struct {
	Wpm      float64 `json:"wpm"`
	Progress float64 `json:"progress"`
}

func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	grant, err := h.tokens.Redeem(r.Context(), r.URL.Query().Get("token"))
	if errs.Is(err, errs.ErrTokenNotFound) {
		httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
			httpresponse.ErrorResponse{ErrorDescription: "invalid or used token"})
		return
	}
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the handshake completes so the client never misses an
	// event published right after connecting.
	outbound := make(chan []byte, outboundBuffer)
	sub, err := h.bus.Subscribe(ctx, event.Topic(grant.LobbyID), func(payload []byte) {
		select {
		case outbound <- payload:
		default:
			h.log.Warnw("dropping event for slow socket", "lobby_id", grant.LobbyID, "username", grant.Username)
		}
	})
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	h.log.Infow("realtime connected", "lobby_id", grant.LobbyID, "username", grant.Username)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, cancel, conn, outbound)
	}()

	h.readLoop(ctx, conn, grant)
	cancel()
	<-writerDone
	h.log.Infow("realtime disconnected", "lobby_id", grant.LobbyID, "username", grant.Username)
}

func (h *RealtimeHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, outbound <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cancel()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		}
	}
}

func (h *RealtimeHandler) readLoop(ctx context.Context, conn *websocket.Conn, grant event.Grant) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ProgressMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warnw("realtime read failed", "lobby_id", grant.LobbyID, "error", err)
			}
			return
		}
		if msg.Progress < 0 || msg.Progress > 100 || msg.Wpm < 0 {
			continue
		}

		raw, err := event.Encode(event.TypePlayerProgress, event.PlayerProgress{
			LobbyID:  grant.LobbyID,
			Username: grant.Username,
			Wpm:      msg.Wpm,
			Progress: msg.Progress,
		})
		if err != nil {
			continue
		}
		if err := h.bus.Publish(ctx, event.Topic(grant.LobbyID), raw); err != nil {
			h.log.Errorw("failed to publish progress", "lobby_id", grant.LobbyID, "error", err)
		}
	}
}
