package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "typerace/internal/errors"
)

func TestWinner(t *testing.T) {
	cases := []struct {
		name    string
		players []PlayerResult
		want    string
	}{
		{
			name: "progress tie broken by wpm",
			players: []PlayerResult{
				{Username: "A", Wpm: 80, Progress: 100},
				{Username: "B", Wpm: 95, Progress: 100},
				{Username: "C", Wpm: 60, Progress: 90},
			},
			want: "B",
		},
		{
			name: "progress beats wpm",
			players: []PlayerResult{
				{Username: "fast", Wpm: 150, Progress: 70},
				{Username: "done", Wpm: 40, Progress: 100},
			},
			want: "done",
		},
		{
			name:    "single player",
			players: []PlayerResult{{Username: "solo", Wpm: 0, Progress: 0}},
			want:    "solo",
		},
		{
			name: "no players",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Winner(tc.players))
		})
	}
}

func TestRank_DoesNotReorderInput(t *testing.T) {
	in := []PlayerResult{{Username: "a", Progress: 10}, {Username: "b", Progress: 20}}
	_ = Rank(in)
	assert.Equal(t, "a", in[0].Username)
}

func TestMinQuoteLength(t *testing.T) {
	n, err := MinQuoteLength(DifficultyHard)
	assert.NoError(t, err)
	assert.Equal(t, 200, n)

	n, err = MinQuoteLength("")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = MinQuoteLength("nightmare")
	assert.True(t, errors.Is(err, errs.ErrInvalidDifficulty))
	assert.True(t, errors.Is(err, errs.ErrBadRequest))
}
