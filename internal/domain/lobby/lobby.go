package lobby

import (
	"slices"
	"time"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusInGame Status = "IN_GAME"
	StatusClosed Status = "CLOSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInGame, StatusClosed:
		return true
	}
	return false
}

const MinPlayers = 2

type Lobby struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	HostID     string    `json:"host_id" bson:"host_id"`
	MaxPlayers int       `json:"max_players" bson:"max_players"`
	Status     Status    `json:"status" bson:"status"`
	Usernames  []string  `json:"usernames" bson:"usernames"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
	Version    int64     `json:"-" bson:"version"`

	// Set by EndGame. A GameStarted for the game named here, or one that
	// started before LastGameEndedAt, arrived after its game was over.
	LastEndedGameID string    `json:"last_ended_game_id,omitempty" bson:"last_ended_game_id,omitempty"`
	LastGameEndedAt time.Time `json:"last_game_ended_at,omitempty" bson:"last_game_ended_at,omitempty"`
}

func (l Lobby) HasMember(username string) bool {
	return slices.Contains(l.Usernames, username)
}

// EndedAfter reports whether a game that started at startedAt, or the game
// gameID itself, has already been ended on this lobby.
func (l Lobby) EndedAfter(gameID string, startedAt time.Time) bool {
	if gameID != "" && l.LastEndedGameID == gameID {
		return true
	}
	return !l.LastGameEndedAt.IsZero() && l.LastGameEndedAt.After(startedAt)
}

func (l Lobby) IsFull() bool {
	return len(l.Usernames) >= l.MaxPlayers
}

func (l Lobby) IsEmpty() bool {
	return len(l.Usernames) == 0
}

// AddMember appends username unless it is already present.
func (l *Lobby) AddMember(username string) {
	if l.HasMember(username) {
		return
	}
	l.Usernames = append(l.Usernames, username)
}

// RemoveMember drops every occurrence of username and reports whether anything was removed.
func (l *Lobby) RemoveMember(username string) bool {
	before := len(l.Usernames)
	l.Usernames = slices.DeleteFunc(l.Usernames, func(u string) bool { return u == username })
	return len(l.Usernames) != before
}

// Page is one slice of a status-filtered listing, newest first.
type Page struct {
	Lobbies    []Lobby `json:"lobbies"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

type ListQuery struct {
	Status Status
	Limit  int
	Cursor *Cursor
}
