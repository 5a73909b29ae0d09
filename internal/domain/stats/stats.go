package stats

import (
	"sort"
	"time"
)

// GlobalID is the key of the single statistics row.
const GlobalID = "global"

// ScoreboardSize bounds TopPlayersScoreboard.
const ScoreboardSize = 15

type GameStatistics struct {
	ID                   string            `json:"id" bson:"_id"`
	TotalGamesStarted    int64             `json:"total_games_started" bson:"total_games_started"`
	TotalGamesFinished   int64             `json:"total_games_finished" bson:"total_games_finished"`
	TopPlayersScoreboard []ScoreboardEntry `json:"top_players_scoreboard" bson:"top_players_scoreboard"`
	CreatedAt            time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" bson:"updated_at"`
	Version              int64             `json:"-" bson:"version"`
}

type ScoreboardEntry struct {
	Username                       string    `json:"username" bson:"username"`
	BestWpm                        float64   `json:"best_wpm" bson:"best_wpm"`
	GamesPlayedInvolvingScoreboard int       `json:"games_played_involving_scoreboard" bson:"games_played_involving_scoreboard"`
	LastGameTimestamp              time.Time `json:"last_game_timestamp" bson:"last_game_timestamp"`
}

// NewGameStatistics is the fully initialized row written on the first game start.
func NewGameStatistics(now time.Time) GameStatistics {
	return GameStatistics{
		ID:                   GlobalID,
		TopPlayersScoreboard: []ScoreboardEntry{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// ApplyResult offers one player's result to the scoreboard. An existing entry
// keeps the better wpm and counts the game; an unknown player is inserted.
// The board is re-sorted and cut to ScoreboardSize on every call.
func ApplyResult(board []ScoreboardEntry, username string, wpm float64, at time.Time) []ScoreboardEntry {
	out := make([]ScoreboardEntry, len(board), len(board)+1)
	copy(out, board)

	found := false
	for i := range out {
		if out[i].Username != username {
			continue
		}
		if wpm > out[i].BestWpm {
			out[i].BestWpm = wpm
		}
		out[i].GamesPlayedInvolvingScoreboard++
		out[i].LastGameTimestamp = at
		found = true
		break
	}
	if !found {
		out = append(out, ScoreboardEntry{
			Username:                       username,
			BestWpm:                        wpm,
			GamesPlayedInvolvingScoreboard: 1,
			LastGameTimestamp:              at,
		})
	}

	Sort(out)
	if len(out) > ScoreboardSize {
		out = out[:ScoreboardSize]
	}
	return out
}

// Sort orders by best wpm desc, then play count desc, then the oldest last game first.
func Sort(board []ScoreboardEntry) {
	sort.SliceStable(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.BestWpm != b.BestWpm {
			return a.BestWpm > b.BestWpm
		}
		if a.GamesPlayedInvolvingScoreboard != b.GamesPlayedInvolvingScoreboard {
			return a.GamesPlayedInvolvingScoreboard > b.GamesPlayedInvolvingScoreboard
		}
		return a.LastGameTimestamp.Before(b.LastGameTimestamp)
	})
}
