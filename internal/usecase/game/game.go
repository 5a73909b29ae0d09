package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"typerace/internal/domain/event"
	"typerace/internal/domain/game"
	"typerace/internal/domain/lobby"
	"typerace/internal/domain/player"
	"typerace/internal/domain/stats"
	errs "typerace/internal/errors"
	"typerace/internal/usecase/optimistic"
)

type PlayerStore interface {
	GetByUsername(ctx context.Context, username string) (player.Player, error)
	Update(ctx context.Context, p player.Player) (player.Player, error)
}

type LobbyStore interface {
	Get(ctx context.Context, id string) (lobby.Lobby, error)
	Update(ctx context.Context, l lobby.Lobby) (lobby.Lobby, error)
}

type StatisticsStore interface {
	IncrementGamesStarted(ctx context.Context, now time.Time) (started int64, created bool, err error)
	IncrementGamesFinished(ctx context.Context) (int64, error)
	Get(ctx context.Context) (stats.GameStatistics, error)
	SaveScoreboard(ctx context.Context, board []stats.ScoreboardEntry, finishedAtLeast int64, expectedVersion int64, now time.Time) (stats.GameStatistics, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type QuoteProvider interface {
	GetRandomQuote(ctx context.Context, minLength int) (game.Quote, error)
}

// Deduper guards event processing against redelivery.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Options struct {
	Retry optimistic.Policy
}

type GameUseCase struct {
	players    PlayerStore
	lobbies    LobbyStore
	statistics StatisticsStore
	publisher  Publisher
	quotes     QuoteProvider
	dedupe     Deduper
	log        *zap.SugaredLogger
	opts       Options
	now        func() time.Time
}

func NewGameUseCase(
	players PlayerStore,
	lobbies LobbyStore,
	statistics StatisticsStore,
	publisher Publisher,
	quotes QuoteProvider,
	dedupe Deduper,
	log *zap.SugaredLogger,
	opts Options,
) *GameUseCase {
	return &GameUseCase{
		players:    players,
		lobbies:    lobbies,
		statistics: statistics,
		publisher:  publisher,
		quotes:     quotes,
		dedupe:     dedupe,
		log:        log,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EndGameRequest carries the final results. GameID is optional; a fresh one is
// generated when the client did not keep the id from GameStarted.
type EndGameRequest struct {
	LobbyID string              `json:"lobby_id"`
	GameID  string              `json:"game_id,omitempty"`
	Players []game.PlayerResult `json:"players"`
}

// StartGame picks race text and announces the game on the lobby topic. It
// does not touch the lobby status: the GameStarted consumer owns the
// OPEN -> IN_GAME transition.
func (uc *GameUseCase) StartGame(ctx context.Context, lobbyID, userID string, difficulty game.Difficulty) (event.GameStarted, error) {
	minLength, err := game.MinQuoteLength(difficulty)
	if err != nil {
		return event.GameStarted{}, err
	}
	l, err := uc.lobbies.Get(ctx, lobbyID)
	if err != nil {
		return event.GameStarted{}, err
	}
	if l.HostID != userID {
		return event.GameStarted{}, errs.ErrNotHost
	}
	if l.Status != lobby.StatusOpen {
		return event.GameStarted{}, errs.ErrLobbyNotOpen
	}

	quote, err := uc.quotes.GetRandomQuote(ctx, minLength)
	if err != nil {
		return event.GameStarted{}, err
	}

	started := event.GameStarted{
		GameID:    uuid.NewString(),
		LobbyID:   lobbyID,
		Content:   quote.Content,
		Timestamp: uc.now(),
	}
	if err := uc.publish(ctx, lobbyID, event.TypeGameStarted, started); err != nil {
		return event.GameStarted{}, err
	}

	uc.log.Infow("game started", "game_id", started.GameID, "lobby_id", lobbyID, "difficulty", difficulty, "content_length", len(quote.Content))
	return started, nil
}

// EndGame records every listed player's result, reopens the lobby and
// announces the outcome. Player updates are independent: a failure on one is
// logged and the rest still apply.
func (uc *GameUseCase) EndGame(ctx context.Context, req EndGameRequest) (event.GameEnded, error) {
	if _, err := uc.lobbies.Get(ctx, req.LobbyID); err != nil {
		return event.GameEnded{}, err
	}

	winner := game.Winner(req.Players)
	for _, result := range req.Players {
		err := uc.recordResult(ctx, result, result.Username == winner)
		switch {
		case err == nil:
		case errs.Is(err, errs.ErrPlayerNotFound):
			uc.log.Warnw("player not found, skipping result", "lobby_id", req.LobbyID, "username", result.Username)
		default:
			uc.log.Errorw("failed to record player result", "lobby_id", req.LobbyID, "username", result.Username, "error", err)
		}
	}

	gameID := req.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	_, err := optimistic.Do(ctx, uc.opts.Retry, func() (lobby.Lobby, error) {
		l, err := uc.lobbies.Get(ctx, req.LobbyID)
		if err != nil {
			return l, err
		}
		now := uc.now()
		l.Status = lobby.StatusOpen
		l.LastEndedGameID = gameID
		l.LastGameEndedAt = now
		l.UpdatedAt = now
		return uc.lobbies.Update(ctx, l)
	})
	if err != nil {
		return event.GameEnded{}, err
	}

	ended := event.GameEnded{
		GameID:    gameID,
		LobbyID:   req.LobbyID,
		Players:   req.Players,
		Winner:    winner,
		Timestamp: uc.now(),
	}
	if err := uc.publish(ctx, req.LobbyID, event.TypeGameEnded, ended); err != nil {
		return event.GameEnded{}, err
	}

	uc.log.Infow("game ended", "game_id", gameID, "lobby_id", req.LobbyID, "winner", winner, "players", len(req.Players))
	return ended, nil
}

func (uc *GameUseCase) recordResult(ctx context.Context, result game.PlayerResult, won bool) error {
	_, err := optimistic.Do(ctx, uc.opts.Retry, func() (player.Player, error) {
		p, err := uc.players.GetByUsername(ctx, result.Username)
		if err != nil {
			return p, err
		}
		p.RecordResult(result.Wpm, won)
		p.UpdatedAt = uc.now()
		return uc.players.Update(ctx, p)
	})
	return err
}

func (uc *GameUseCase) publish(ctx context.Context, lobbyID string, t event.Type, payload any) error {
	raw, err := event.Encode(t, payload)
	if err != nil {
		return err
	}
	return uc.publisher.Publish(ctx, event.Topic(lobbyID), raw)
}
