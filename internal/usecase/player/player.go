package player

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"typerace/internal/domain/player"
	errs "typerace/internal/errors"
	"typerace/internal/usecase/optimistic"
)

type PlayerStore interface {
	Create(ctx context.Context, p player.Player) (player.Player, error)
	GetByID(ctx context.Context, id string) (player.Player, error)
	GetByUsername(ctx context.Context, username string) (player.Player, error)
	GetByEmail(ctx context.Context, email string) (player.Player, error)
	Update(ctx context.Context, p player.Player) (player.Player, error)
}

type PlayerUseCase struct {
	players PlayerStore
	log     *zap.SugaredLogger
	retry   optimistic.Policy
	now     func() time.Time
}

func NewPlayerUseCase(players PlayerStore, log *zap.SugaredLogger, retry optimistic.Policy) *PlayerUseCase {
	return &PlayerUseCase{
		players: players,
		log:     log,
		retry:   retry,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Register creates the player record for an identity seen for the first
// time. Registering the same identity again returns the existing record.
func (uc *PlayerUseCase) Register(ctx context.Context, id player.Identity) (player.Player, error) {
	id.Username = strings.TrimSpace(id.Username)
	id.Email = strings.TrimSpace(strings.ToLower(id.Email))
	if id.UserID == "" || id.Username == "" || id.Email == "" {
		return player.Player{}, errs.ErrInvalidIdentity
	}

	existing, err := uc.players.GetByID(ctx, id.UserID)
	if err == nil {
		if existing.Username != id.Username || existing.Email != id.Email {
			return player.Player{}, errs.ErrUserExists
		}
		return existing, nil
	}
	if !errs.Is(err, errs.ErrPlayerNotFound) {
		return player.Player{}, err
	}
	if err := uc.ensureFree(ctx, id); err != nil {
		return player.Player{}, err
	}

	now := uc.now()
	created, err := uc.players.Create(ctx, player.Player{
		ID:        id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return player.Player{}, err
	}
	uc.log.Infow("player registered", "player_id", created.ID, "username", created.Username)
	return created, nil
}

// ensureFree rejects an identity whose username or email already belongs to
// another player. The unique indexes still back this up under races.
func (uc *PlayerUseCase) ensureFree(ctx context.Context, id player.Identity) error {
	lookups := []func() (player.Player, error){
		func() (player.Player, error) { return uc.players.GetByEmail(ctx, id.Email) },
		func() (player.Player, error) { return uc.players.GetByUsername(ctx, id.Username) },
	}
	for _, lookup := range lookups {
		other, err := lookup()
		if errs.Is(err, errs.ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		uc.log.Infow("identity clashes with an existing player", "user_id", id.UserID, "existing_id", other.ID)
		return errs.ErrUserExists
	}
	return nil
}

func (uc *PlayerUseCase) Confirm(ctx context.Context, username string) (player.Player, error) {
	return optimistic.Do(ctx, uc.retry, func() (player.Player, error) {
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			return p, err
		}
		if p.UserConfirmed {
			return p, nil
		}
		p.UserConfirmed = true
		p.UpdatedAt = uc.now()
		return uc.players.Update(ctx, p)
	})
}

func (uc *PlayerUseCase) Get(ctx context.Context, username string) (player.Player, error) {
	return uc.players.GetByUsername(ctx, username)
}
