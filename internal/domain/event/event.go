package event

import (
	"encoding/json"
	"fmt"
	"time"

	"typerace/internal/domain/game"
)

type Type string

const (
	TypeGameStarted    Type = "GameStarted"
	TypeGameEnded      Type = "GameEnded"
	TypePlayerProgress Type = "PlayerProgress"
)

// Envelope is the wire form of everything published on a lobby topic.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type GameStarted struct {
	GameID    string    `json:"game_id"`
	LobbyID   string    `json:"lobby_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type GameEnded struct {
	GameID    string              `json:"game_id"`
	LobbyID   string              `json:"lobby_id"`
	Players   []game.PlayerResult `json:"players"`
	Winner    string              `json:"winner,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type PlayerProgress struct {
	LobbyID  string  `json:"lobby_id"`
	Username string  `json:"username"`
	Wpm      float64 `json:"wpm"`
	Progress float64 `json:"progress"`
}

// Topic is the pub/sub channel all events of one lobby travel on.
func Topic(lobbyID string) string {
	return "lobby:" + lobbyID
}

func Encode(t Type, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: body})
}

func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope without type")
	}
	return env, nil
}

// Into decodes the payload into dst.
func (e Envelope) Into(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// Grant is what a disposable realtime token resolves to.
type Grant struct {
	LobbyID  string `json:"lobby_id"`
	Username string `json:"username"`
}
