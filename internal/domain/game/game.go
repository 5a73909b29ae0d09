package game

import (
	"sort"

	errs "typerace/internal/errors"
)

// PlayerResult is one racer's final line as reported by the client.
type PlayerResult struct {
	Username string  `json:"username" bson:"username"`
	Wpm      float64 `json:"wpm" bson:"wpm"`
	Progress float64 `json:"progress" bson:"progress"`
}

// Rank orders results by progress desc, then wpm desc. The input is not modified.
func Rank(players []PlayerResult) []PlayerResult {
	ranked := make([]PlayerResult, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Progress != ranked[j].Progress {
			return ranked[i].Progress > ranked[j].Progress
		}
		return ranked[i].Wpm > ranked[j].Wpm
	})
	return ranked
}

// Winner returns the username of the top-ranked result, or "" for no players.
func Winner(players []PlayerResult) string {
	if len(players) == 0 {
		return ""
	}
	return Rank(players)[0].Username
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MinQuoteLength maps a difficulty to the shortest acceptable race text.
func MinQuoteLength(d Difficulty) (int, error) {
	switch d {
	case DifficultyEasy, "":
		return 0, nil
	case DifficultyMedium:
		return 100, nil
	case DifficultyHard:
		return 200, nil
	}
	return 0, errs.ErrInvalidDifficulty
}

// Quote is race text supplied by the quote provider.
type Quote struct {
	Content string `json:"content" bson:"content"`
	Author  string `json:"author,omitempty" bson:"author,omitempty"`
}
