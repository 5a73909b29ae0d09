// Package listener follows one lobby's event topic for the life of a game.
//
// A session subscribes before Start returns, so a GameStarted published right
// after Start is never missed. It ends on the first of: a GameEnded envelope,
// Stop, cancellation of the parent context, or the duration ceiling. The
// subscription is closed in every case.
package listener

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"typerace/internal/domain/event"
)

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (io.Closer, error)
}

// Forward receives every decoded envelope. Errors are logged and do not end
// the session.
type Forward func(ctx context.Context, env event.Envelope) error

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCancelled Outcome = "cancelled"
)

type Listener struct {
	subscriber Subscriber
	ceiling    time.Duration
	log        *zap.SugaredLogger
}

func NewListener(subscriber Subscriber, ceiling time.Duration, log *zap.SugaredLogger) *Listener {
	return &Listener{subscriber: subscriber, ceiling: ceiling, log: log}
}

type Session struct {
	lobbyID   string
	stop      chan struct{}
	completed chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	endOnce   sync.Once
	outcome   Outcome
}

func (l *Listener) Start(parent context.Context, lobbyID string, forward Forward) (*Session, error) {
	ctx, cancel := context.WithTimeout(parent, l.ceiling)
	s := &Session{
		lobbyID:   lobbyID,
		stop:      make(chan struct{}),
		completed: make(chan struct{}),
		done:      make(chan struct{}),
	}
	// Forwarded work outlives the session window so a GameEnded being
	// recorded is not cut off by the ceiling firing.
	forwardCtx := context.WithoutCancel(parent)

	sub, err := l.subscriber.Subscribe(ctx, event.Topic(lobbyID), func(raw []byte) {
		if s.finished() {
			return
		}
		env, err := event.Decode(raw)
		if err != nil {
			l.log.Warnw("dropping undecodable message", "lobby_id", lobbyID, "error", err)
			return
		}
		if err := forward(forwardCtx, env); err != nil {
			l.log.Errorw("forwarding event failed", "lobby_id", lobbyID, "type", env.Type, "error", err)
		}
		if env.Type == event.TypeGameEnded {
			s.endOnce.Do(func() { close(s.completed) })
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}
	l.log.Infow("listener started", "lobby_id", lobbyID, "ceiling", l.ceiling)

	go func() {
		defer cancel()
		select {
		case <-s.completed:
			s.outcome = OutcomeCompleted
		case <-s.stop:
			s.outcome = OutcomeCancelled
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
				s.outcome = OutcomeTimedOut
			} else {
				s.outcome = OutcomeCancelled
			}
		}
		if err := sub.Close(); err != nil {
			l.log.Warnw("closing subscription failed", "lobby_id", lobbyID, "error", err)
		}
		l.log.Infow("listener stopped", "lobby_id", lobbyID, "outcome", s.outcome)
		close(s.done)
	}()
	return s, nil
}

// Stop ends the session early. It is safe to call more than once and after
// the session already ended.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once the subscription has been released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends or ctx is cancelled.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) LobbyID() string {
	return s.lobbyID
}

func (s *Session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
