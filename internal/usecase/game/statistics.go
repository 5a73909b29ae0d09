package game

import (
	"context"

	"typerace/internal/domain/event"
	"typerace/internal/domain/lobby"
	"typerace/internal/domain/stats"
	errs "typerace/internal/errors"
	"typerace/internal/usecase/optimistic"
)

// ProcessGameStartedEvent counts the game and moves the lobby to IN_GAME.
// The counter increment creates the statistics row on first use in the same
// atomic store operation, so concurrent first games cannot race on setup.
func (uc *GameUseCase) ProcessGameStartedEvent(ctx context.Context, evt event.GameStarted) error {
	key := "started:" + evt.GameID
	first, err := uc.dedupe.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !first {
		uc.log.Debugw("duplicate GameStarted ignored", "game_id", evt.GameID)
		return nil
	}

	started, created, err := uc.statistics.IncrementGamesStarted(ctx, uc.now())
	if err != nil {
		uc.release(ctx, key)
		return err
	}
	if created {
		uc.log.Infow("game statistics initialized", "game_id", evt.GameID)
	}
	uc.log.Infow("game start recorded", "game_id", evt.GameID, "lobby_id", evt.LobbyID, "total_started", started)

	return uc.markInGame(ctx, evt)
}

// markInGame flips an OPEN lobby to IN_GAME unless this game was already
// ended on it. Unrelated lobby writes (joins, leaves) do not count as an end.
func (uc *GameUseCase) markInGame(ctx context.Context, evt event.GameStarted) error {
	_, err := optimistic.Do(ctx, uc.opts.Retry, func() (struct{}, error) {
		l, err := uc.lobbies.Get(ctx, evt.LobbyID)
		if errs.Is(err, errs.ErrLobbyNotFound) {
			uc.log.Warnw("lobby gone before game start was processed", "lobby_id", evt.LobbyID, "game_id", evt.GameID)
			return struct{}{}, nil
		}
		if err != nil {
			return struct{}{}, err
		}
		if l.Status != lobby.StatusOpen {
			return struct{}{}, nil
		}
		if l.EndedAfter(evt.GameID, evt.Timestamp) {
			uc.log.Infow("late GameStarted, game already ended", "lobby_id", evt.LobbyID, "game_id", evt.GameID)
			return struct{}{}, nil
		}
		l.Status = lobby.StatusInGame
		l.UpdatedAt = uc.now()
		_, err = uc.lobbies.Update(ctx, l)
		return struct{}{}, err
	})
	return err
}

// ProcessGameEndedEvent counts the finished game and folds every positive
// wpm into the bounded scoreboard.
func (uc *GameUseCase) ProcessGameEndedEvent(ctx context.Context, evt event.GameEnded) error {
	key := "ended:" + evt.GameID
	first, err := uc.dedupe.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !first {
		uc.log.Debugw("duplicate GameEnded ignored", "game_id", evt.GameID)
		return nil
	}

	finished, err := uc.statistics.IncrementGamesFinished(ctx)
	if errs.Is(err, errs.ErrStatisticsNotFound) {
		uc.release(ctx, key)
		uc.log.Errorw("game ended before statistics exist", "game_id", evt.GameID, "lobby_id", evt.LobbyID)
		return errs.ErrStatisticsUninitialized
	}
	if err != nil {
		uc.release(ctx, key)
		return err
	}

	at := evt.Timestamp
	if at.IsZero() {
		at = uc.now()
	}

	_, err = optimistic.Do(ctx, uc.opts.Retry, func() (stats.GameStatistics, error) {
		row, err := uc.statistics.Get(ctx)
		if errs.Is(err, errs.ErrStatisticsNotFound) {
			return row, errs.ErrStatisticsUninitialized
		}
		if err != nil {
			return row, err
		}
		if row.TotalGamesFinished < finished {
			uc.log.Warnw("statistics row behind finished counter, syncing", "row", row.TotalGamesFinished, "counter", finished)
		}

		board := row.TopPlayersScoreboard
		for _, p := range evt.Players {
			if p.Wpm <= 0 {
				continue
			}
			board = stats.ApplyResult(board, p.Username, p.Wpm, at)
		}
		return uc.statistics.SaveScoreboard(ctx, board, finished, row.Version, uc.now())
	})
	if err != nil {
		uc.log.Errorw("scoreboard update failed", "game_id", evt.GameID, "error", err)
		return err
	}

	uc.log.Infow("game end recorded", "game_id", evt.GameID, "lobby_id", evt.LobbyID, "total_finished", finished)
	return nil
}

// Dispatch routes an envelope from a lobby topic to its processor.
func (uc *GameUseCase) Dispatch(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeGameStarted:
		var evt event.GameStarted
		if err := env.Into(&evt); err != nil {
			return err
		}
		return uc.ProcessGameStartedEvent(ctx, evt)
	case event.TypeGameEnded:
		var evt event.GameEnded
		if err := env.Into(&evt); err != nil {
			return err
		}
		return uc.ProcessGameEndedEvent(ctx, evt)
	case event.TypePlayerProgress:
		return nil
	}
	uc.log.Debugw("unknown event type", "type", env.Type)
	return nil
}

// GetStatistics returns the global row, or an empty one before the first game.
func (uc *GameUseCase) GetStatistics(ctx context.Context) (stats.GameStatistics, error) {
	row, err := uc.statistics.Get(ctx)
	if errs.Is(err, errs.ErrStatisticsNotFound) {
		return stats.NewGameStatistics(uc.now()), nil
	}
	return row, err
}

func (uc *GameUseCase) release(ctx context.Context, key string) {
	if err := uc.dedupe.Release(ctx, key); err != nil {
		uc.log.Warnw("failed to release event claim", "key", key, "error", err)
	}
}
