package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"typerace/internal/domain/player"
	errs "typerace/internal/errors"
	"typerace/internal/repository/memory"
	"typerace/internal/usecase/optimistic"
)

func newUseCase(t *testing.T) *PlayerUseCase {
	t.Helper()
	return NewPlayerUseCase(memory.NewPlayerStore(), zaptest.NewLogger(t).Sugar(), optimistic.Policy{Attempts: 5, Interval: time.Millisecond})
}

func TestRegister(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	p, err := uc.Register(ctx, player.Identity{UserID: "u1", Username: " ann ", Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "ann", p.Username)
	assert.Equal(t, "ann@example.com", p.Email)
	assert.False(t, p.UserConfirmed)
	assert.False(t, p.InLobby())

	again, err := uc.Register(ctx, player.Identity{UserID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, p.Version, again.Version)
}

func TestRegister_Conflicts(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, player.Identity{UserID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, player.Identity{UserID: "u2", Username: "ann", Email: "other@example.com"})
	assert.True(t, errors.Is(err, errs.ErrUserExists))

	_, err = uc.Register(ctx, player.Identity{UserID: "u1", Username: "renamed", Email: "ann@example.com"})
	assert.True(t, errors.Is(err, errs.ErrConflict))

	_, err = uc.Register(ctx, player.Identity{UserID: "u3", Username: "", Email: "x@example.com"})
	assert.True(t, errors.Is(err, errs.ErrBadRequest))
}

func TestRegister_EmailOrUsernameOfAnotherPlayer(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, player.Identity{UserID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, player.Identity{UserID: "u2", Username: "annie", Email: " ANN@example.com "})
	assert.True(t, errors.Is(err, errs.ErrUserExists))

	_, err = uc.Register(ctx, player.Identity{UserID: "u3", Username: "ann", Email: "third@example.com"})
	assert.True(t, errors.Is(err, errs.ErrUserExists))

	_, err = uc.Get(ctx, "annie")
	assert.True(t, errors.Is(err, errs.ErrPlayerNotFound), "nothing is created on a clash")
}

func TestConfirm(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, player.Identity{UserID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	p, err := uc.Confirm(ctx, "ann")
	require.NoError(t, err)
	assert.True(t, p.UserConfirmed)

	p, err = uc.Confirm(ctx, "ann")
	require.NoError(t, err)
	assert.True(t, p.UserConfirmed)

	_, err = uc.Confirm(ctx, "ghost")
	assert.True(t, errors.Is(err, errs.ErrPlayerNotFound))
}

func TestGet(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Get(ctx, "ann")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = uc.Register(ctx, player.Identity{UserID: "u1", Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)
	p, err := uc.Get(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
}
