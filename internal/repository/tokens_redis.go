package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"typerace/internal/domain/event"
	errs "typerace/internal/errors"
)

const tokenPrefix = "realtime-token:"

// RedisTokenStore keeps disposable realtime tokens. GETDEL makes redemption
// at-most-once even when two sockets race with the same token.
type RedisTokenStore struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewRedisTokenStore(client *redis.Client, log *zap.SugaredLogger) *RedisTokenStore {
	return &RedisTokenStore{client: client, log: log}
}

func (r *RedisTokenStore) Issue(ctx context.Context, grant event.Grant, ttl time.Duration) (string, error) {
	body, err := json.Marshal(grant)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := r.client.Set(ctx, tokenPrefix+token, body, ttl).Err(); err != nil {
		r.log.Errorw("failed to store realtime token", "lobby_id", grant.LobbyID, "error", err)
		return "", errs.Integration("store token", err)
	}
	return token, nil
}

func (r *RedisTokenStore) Redeem(ctx context.Context, token string) (event.Grant, error) {
	body, err := r.client.GetDel(ctx, tokenPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return event.Grant{}, errs.ErrTokenNotFound
	}
	if err != nil {
		return event.Grant{}, errs.Integration("redeem token", err)
	}
	var grant event.Grant
	if err := json.Unmarshal(body, &grant); err != nil {
		r.log.Warnw("corrupt realtime token", "error", err)
		return event.Grant{}, errs.ErrTokenNotFound
	}
	return grant, nil
}

const dedupePrefix = "event-claim:"

// RedisDeduper records processed event keys with SET NX so a redelivered
// event is claimed only once within ttl.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, dedupePrefix+key, 1, r.ttl).Result()
	if err != nil {
		return false, errs.Integration("claim "+key, err)
	}
	return ok, nil
}

func (r *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, dedupePrefix+key).Err(); err != nil {
		return errs.Integration("release "+key, err)
	}
	return nil
}
