package player

import "time"

type Player struct {
	ID             string    `json:"id" bson:"_id"`
	Username       string    `json:"username" bson:"username"`
	Email          string    `json:"email" bson:"email"`
	UserConfirmed  bool      `json:"user_confirmed" bson:"user_confirmed"`
	CurrentLobbyID string    `json:"current_lobby_id,omitempty" bson:"current_lobby_id,omitempty"`
	GamesPlayed    int       `json:"games_played" bson:"games_played"`
	Wins           int       `json:"wins" bson:"wins"`
	BestWpm        float64   `json:"best_wpm" bson:"best_wpm"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
	Version        int64     `json:"-" bson:"version"`
}

// InLobby reports whether the player currently holds a lobby membership.
func (p Player) InLobby() bool {
	return p.CurrentLobbyID != ""
}

// RecordResult applies one finished game to the cumulative counters.
func (p *Player) RecordResult(wpm float64, won bool) {
	p.GamesPlayed++
	if wpm > 0 && wpm > p.BestWpm {
		p.BestWpm = wpm
	}
	if won {
		p.Wins++
	}
}

// Summary is the public view of a lobby member.
type Summary struct {
	Username    string  `json:"username"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	BestWpm     float64 `json:"best_wpm"`
	Known       bool    `json:"known"`
}

func (p Player) Summary() Summary {
	return Summary{
		Username:    p.Username,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		BestWpm:     p.BestWpm,
		Known:       true,
	}
}

// Identity is the authenticated caller as supplied by the session layer.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
