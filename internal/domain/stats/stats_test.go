package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyResult_KeepsTopFifteen(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var board []ScoreboardEntry
	for i := 1; i <= 16; i++ {
		board = ApplyResult(board, fmt.Sprintf("p%02d", i), float64(i*10), base.Add(time.Duration(i)*time.Minute))
	}

	require.Len(t, board, ScoreboardSize)
	assert.Equal(t, "p16", board[0].Username)
	assert.Equal(t, 160.0, board[0].BestWpm)
	assert.Equal(t, "p02", board[14].Username)
	for _, e := range board {
		assert.NotEqual(t, "p01", e.Username)
	}
}

func TestApplyResult_ExistingEntryKeepsBestAndCountsGame(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	board := ApplyResult(nil, "ann", 90, t1)
	board = ApplyResult(board, "ann", 70, t2)

	require.Len(t, board, 1)
	assert.Equal(t, 90.0, board[0].BestWpm)
	assert.Equal(t, 2, board[0].GamesPlayedInvolvingScoreboard)
	assert.Equal(t, t2, board[0].LastGameTimestamp)

	board = ApplyResult(board, "ann", 120, t2)
	assert.Equal(t, 120.0, board[0].BestWpm)
}

func TestSort_TieBreaks(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(24 * time.Hour)
	board := []ScoreboardEntry{
		{Username: "recent", BestWpm: 80, GamesPlayedInvolvingScoreboard: 3, LastGameTimestamp: recent},
		{Username: "fewer", BestWpm: 80, GamesPlayedInvolvingScoreboard: 1, LastGameTimestamp: old},
		{Username: "fast", BestWpm: 99, GamesPlayedInvolvingScoreboard: 1, LastGameTimestamp: recent},
		{Username: "old", BestWpm: 80, GamesPlayedInvolvingScoreboard: 3, LastGameTimestamp: old},
	}

	Sort(board)

	var got []string
	for _, e := range board {
		got = append(got, e.Username)
	}
	assert.Equal(t, []string{"fast", "old", "recent", "fewer"}, got)
}

func TestApplyResult_DoesNotMutateInput(t *testing.T) {
	at := time.Now()
	board := []ScoreboardEntry{{Username: "a", BestWpm: 10, GamesPlayedInvolvingScoreboard: 1, LastGameTimestamp: at}}

	_ = ApplyResult(board, "a", 50, at)

	assert.Equal(t, 10.0, board[0].BestWpm)
	assert.Equal(t, 1, board[0].GamesPlayedInvolvingScoreboard)
}
