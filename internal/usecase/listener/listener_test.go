package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"typerace/internal/domain/event"
	"typerace/internal/repository/memory"
)

type recorder struct {
	mu   sync.Mutex
	seen []event.Type
	err  error
}

func (r *recorder) forward(_ context.Context, env event.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, env.Type)
	return r.err
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Type(nil), r.seen...)
}

func publish(t *testing.T, bus *memory.EventBus, lobbyID string, typ event.Type, payload any) {
	t.Helper()
	raw, err := event.Encode(typ, payload)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), event.Topic(lobbyID), raw))
}

func wait(t *testing.T, s *Session) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	outcome, err := s.Wait(ctx)
	require.NoError(t, err, "session did not end")
	return outcome
}

func TestListener_CompletesOnGameEnded(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, time.Minute, zaptest.NewLogger(t).Sugar())
	rec := &recorder{}

	s, err := l.Start(context.Background(), "l1", rec.forward)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers(event.Topic("l1")))

	publish(t, bus, "l1", event.TypeGameStarted, event.GameStarted{GameID: "g1", LobbyID: "l1"})
	publish(t, bus, "l1", event.TypePlayerProgress, event.PlayerProgress{LobbyID: "l1", Username: "ann", Progress: 50})
	publish(t, bus, "l1", event.TypeGameEnded, event.GameEnded{GameID: "g1", LobbyID: "l1"})

	assert.Equal(t, OutcomeCompleted, wait(t, s))
	assert.Equal(t, []event.Type{event.TypeGameStarted, event.TypePlayerProgress, event.TypeGameEnded}, rec.types())
	assert.Eventually(t, func() bool { return bus.Subscribers(event.Topic("l1")) == 0 }, time.Second, 10*time.Millisecond)
}

func TestListener_TimesOut(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, 50*time.Millisecond, zaptest.NewLogger(t).Sugar())
	rec := &recorder{}

	s, err := l.Start(context.Background(), "l1", rec.forward)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimedOut, wait(t, s))
	assert.Eventually(t, func() bool { return bus.Subscribers(event.Topic("l1")) == 0 }, time.Second, 10*time.Millisecond)

	publish(t, bus, "l1", event.TypeGameStarted, event.GameStarted{GameID: "late"})
	assert.Empty(t, rec.types())
}

func TestListener_Stop(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, time.Minute, zaptest.NewLogger(t).Sugar())

	s, err := l.Start(context.Background(), "l1", (&recorder{}).forward)
	require.NoError(t, err)

	s.Stop()
	s.Stop()
	assert.Equal(t, OutcomeCancelled, wait(t, s))
	assert.Equal(t, "l1", s.LobbyID())
}

func TestListener_ParentCancelled(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, time.Minute, zaptest.NewLogger(t).Sugar())
	ctx, cancel := context.WithCancel(context.Background())

	s, err := l.Start(ctx, "l1", (&recorder{}).forward)
	require.NoError(t, err)

	cancel()
	assert.Equal(t, OutcomeCancelled, wait(t, s))
}

func TestListener_ForwardErrorKeepsListening(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, time.Minute, zaptest.NewLogger(t).Sugar())
	rec := &recorder{err: errors.New("statistics unavailable")}

	s, err := l.Start(context.Background(), "l1", rec.forward)
	require.NoError(t, err)

	publish(t, bus, "l1", event.TypeGameStarted, event.GameStarted{GameID: "g1"})
	require.Eventually(t, func() bool { return len(rec.types()) == 1 }, time.Second, 10*time.Millisecond)
	select {
	case <-s.Done():
		t.Fatal("session ended on forward error")
	default:
	}

	publish(t, bus, "l1", event.TypeGameEnded, event.GameEnded{GameID: "g1"})
	assert.Equal(t, OutcomeCompleted, wait(t, s))
}

func TestListener_IgnoresOtherLobbies(t *testing.T) {
	bus := memory.NewEventBus()
	l := NewListener(bus, 100*time.Millisecond, zaptest.NewLogger(t).Sugar())
	rec := &recorder{}

	s, err := l.Start(context.Background(), "l1", rec.forward)
	require.NoError(t, err)

	publish(t, bus, "l2", event.TypeGameEnded, event.GameEnded{GameID: "other"})
	assert.Equal(t, OutcomeTimedOut, wait(t, s))
	assert.Empty(t, rec.types())
}
