package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"typerace/internal/domain/event"
	errs "typerace/internal/errors"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return srv, client
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	_, client := newRedis(t)
	bus := NewRedisEventBus(client, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	got := make(chan []byte, 1)
	sub, err := bus.Subscribe(ctx, "lobby:l1", func(payload []byte) { got <- payload })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "lobby:l1", []byte(`{"type":"GameStarted"}`)))
	select {
	case payload := <-got:
		assert.JSONEq(t, `{"type":"GameStarted"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
}

func TestRedisEventBus_ContextEndsSubscription(t *testing.T) {
	srv, client := newRedis(t)
	bus := NewRedisEventBus(client, zaptest.NewLogger(t).Sugar())
	ctx, cancel := context.WithCancel(context.Background())

	_, err := bus.Subscribe(ctx, "lobby:l1", func([]byte) {})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(srv.PubSubChannels("lobby:*")) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return len(srv.PubSubChannels("lobby:*")) == 0 }, time.Second, 10*time.Millisecond)
}

func TestRedisTokenStore_RedeemOnce(t *testing.T) {
	_, client := newRedis(t)
	store := NewRedisTokenStore(client, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()
	grant := event.Grant{LobbyID: "l1", Username: "ann"}

	token, err := store.Issue(ctx, grant, time.Minute)
	require.NoError(t, err)

	got, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, grant, got)

	_, err = store.Redeem(ctx, token)
	assert.True(t, errors.Is(err, errs.ErrTokenNotFound))
}

func TestRedisTokenStore_Expires(t *testing.T) {
	srv, client := newRedis(t)
	store := NewRedisTokenStore(client, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	token, err := store.Issue(ctx, event.Grant{LobbyID: "l1", Username: "ann"}, time.Minute)
	require.NoError(t, err)
	srv.FastForward(2 * time.Minute)

	_, err = store.Redeem(ctx, token)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRedisDeduper(t *testing.T) {
	srv, client := newRedis(t)
	dedupe := NewRedisDeduper(client, time.Hour)
	ctx := context.Background()

	first, err := dedupe.Claim(ctx, "ended:g1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := dedupe.Claim(ctx, "ended:g1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, dedupe.Release(ctx, "ended:g1"))
	retried, err := dedupe.Claim(ctx, "ended:g1")
	require.NoError(t, err)
	assert.True(t, retried)

	srv.FastForward(2 * time.Hour)
	expired, err := dedupe.Claim(ctx, "ended:g1")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestRedisIntegrationErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	err := NewRedisEventBus(client, zaptest.NewLogger(t).Sugar()).Publish(ctx, "lobby:l1", []byte("{}"))
	assert.True(t, errors.Is(err, errs.ErrIntegration))

	_, err = NewRedisDeduper(client, time.Hour).Claim(ctx, "k")
	assert.True(t, errors.Is(err, errs.ErrIntegration))
}
