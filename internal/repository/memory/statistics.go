package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"typerace/internal/domain/stats"
	errs "typerace/internal/errors"
)

type StatisticsStore struct {
	mu  sync.Mutex
	row *stats.GameStatistics
}

func NewStatisticsStore() *StatisticsStore {
	return &StatisticsStore{}
}

// IncrementGamesStarted adds one to the started counter, creating the row
// fully initialized when it does not exist yet. Both happen under one lock,
// the same guarantee the Mongo upsert gives.
func (s *StatisticsStore) IncrementGamesStarted(_ context.Context, now time.Time) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := false
	if s.row == nil {
		row := stats.NewGameStatistics(now)
		row.Version = 1
		s.row = &row
		created = true
	}
	s.row.TotalGamesStarted++
	s.row.UpdatedAt = now
	return s.row.TotalGamesStarted, created, nil
}

func (s *StatisticsStore) IncrementGamesFinished(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.row == nil {
		return 0, errs.ErrStatisticsNotFound
	}
	s.row.TotalGamesFinished++
	return s.row.TotalGamesFinished, nil
}

func (s *StatisticsStore) Get(_ context.Context) (stats.GameStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.row == nil {
		return stats.GameStatistics{}, errs.ErrStatisticsNotFound
	}
	out := *s.row
	out.TopPlayersScoreboard = slices.Clone(s.row.TopPlayersScoreboard)
	return out, nil
}

// SaveScoreboard replaces the scoreboard when expectedVersion still matches and
// raises the finished counter to at least finishedAtLeast.
func (s *StatisticsStore) SaveScoreboard(_ context.Context, board []stats.ScoreboardEntry, finishedAtLeast int64, expectedVersion int64, now time.Time) (stats.GameStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.row == nil {
		return stats.GameStatistics{}, errs.ErrStatisticsNotFound
	}
	if s.row.Version != expectedVersion {
		return stats.GameStatistics{}, errs.ErrStaleWrite
	}
	s.row.TopPlayersScoreboard = slices.Clone(board)
	if finishedAtLeast > s.row.TotalGamesFinished {
		s.row.TotalGamesFinished = finishedAtLeast
	}
	s.row.UpdatedAt = now
	s.row.Version++
	out := *s.row
	out.TopPlayersScoreboard = slices.Clone(s.row.TopPlayersScoreboard)
	return out, nil
}
