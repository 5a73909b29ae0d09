package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndedAfter(t *testing.T) {
	endedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := Lobby{LastEndedGameID: "g1", LastGameEndedAt: endedAt}

	tests := []struct {
		name      string
		gameID    string
		startedAt time.Time
		want      bool
	}{
		{"same game", "g1", endedAt.Add(time.Minute), true},
		{"started before the last end", "g0", endedAt.Add(-time.Minute), true},
		{"started after the last end", "g2", endedAt.Add(time.Second), false},
		{"started in the same instant", "g2", endedAt, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.EndedAfter(tt.gameID, tt.startedAt))
		})
	}

	assert.False(t, Lobby{}.EndedAfter("g1", endedAt), "a lobby that never ran a game")
}
