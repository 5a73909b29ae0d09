package repo

import (
	"context"
	"io"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	errs "typerace/internal/errors"
)

// RedisEventBus fans lobby events out over Redis PUBLISH/SUBSCRIBE.
type RedisEventBus struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewRedisEventBus(client *redis.Client, log *zap.SugaredLogger) *RedisEventBus {
	return &RedisEventBus{client: client, log: log}
}

func (r *RedisEventBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := r.client.Publish(ctx, topic, payload).Err(); err != nil {
		r.log.Errorw("failed to publish", "topic", topic, "error", err)
		return errs.Integration("publish "+topic, err)
	}
	return nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	once   sync.Once
	err    error
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() { s.err = s.pubsub.Close() })
	return s.err
}

// Subscribe returns once Redis confirmed the subscription, so anything
// published afterwards reaches onMessage. Delivery stops when ctx is done or
// the returned Closer is closed.
func (r *RedisEventBus) Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (io.Closer, error) {
	pubsub := r.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errs.Integration("subscribe "+topic, err)
	}
	sub := &redisSubscription{pubsub: pubsub}

	ch := pubsub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onMessage([]byte(msg.Payload))
			}
		}
	}()
	return sub, nil
}
