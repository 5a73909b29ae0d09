package memory

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"typerace/internal/domain/event"
	errs "typerace/internal/errors"
)

const subscriptionBuffer = 64

// EventBus is an in-process pub/sub keyed by topic. A subscriber whose
// buffer is full misses the message, the same way a slow Redis subscriber
// does.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string]map[*subscription]struct{})}
}

type subscription struct {
	bus   *EventBus
	topic string
	ch    chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.topic], s)
		if len(s.bus.subs[s.topic]) == 0 {
			delete(s.bus.subs, s.topic)
		}
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (io.Closer, error) {
	sub := &subscription{
		bus:   b,
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
		done:  make(chan struct{}),
	}
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			case msg := <-sub.ch:
				onMessage(msg)
			}
		}
	}()
	return sub, nil
}

func (b *EventBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		select {
		case sub.ch <- slices.Clone(payload):
		default:
		}
	}
	return nil
}

// Subscribers reports how many live subscriptions a topic has.
func (b *EventBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type tokenEntry struct {
	grant   event.Grant
	expires time.Time
}

// TokenStore hands out disposable realtime tokens redeemable once.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	now    func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]tokenEntry), now: time.Now}
}

func (s *TokenStore) Issue(_ context.Context, grant event.Grant, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenEntry{grant: grant, expires: s.now().Add(ttl)}
	return token, nil
}

func (s *TokenStore) Redeem(_ context.Context, token string) (event.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return event.Grant{}, errs.ErrTokenNotFound
	}
	delete(s.tokens, token)
	if s.now().After(entry.expires) {
		return event.Grant{}, errs.ErrTokenNotFound
	}
	return entry.grant, nil
}

// Deduper remembers keys for ttl; Claim succeeds once per key.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewDeduper(ttl time.Duration) *Deduper {
	return &Deduper{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (d *Deduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if exp, ok := d.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

// Release forgets key so a failed processing attempt can be retried.
func (d *Deduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}
