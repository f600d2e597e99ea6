package replay

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"catetrust/internal/domain"
)

const redisLedgerKey = "catetrust:replay:digests"

// consume is one atomic purge-then-insert: drop everything at or below the
// cutoff, enforce the capacity ceiling, then add the member if absent.
var redisConsumeScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
local size = redis.call("ZCARD", KEYS[1])
if size + 1 >= tonumber(ARGV[3]) then
  return -1
end
local added = redis.call("ZADD", KEYS[1], "NX", ARGV[1], ARGV[4])
if added == 0 then
  return -2
end
return size + 1
`)

// RedisLedger keeps the replay ledger in a sorted set scored by producedAt,
// so the shared state survives process restarts.
type RedisLedger struct {
	client    *redis.Client
	capacity  int64
	retention int64
}

func NewRedisLedger(addr, password string, db int, cfg MemoryLedgerConfig) (*RedisLedger, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.RetentionSeconds <= 0 {
		cfg.RetentionSeconds = DefaultRetentionSeconds
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisLedger{
		client:    client,
		capacity:  int64(cfg.Capacity),
		retention: cfg.RetentionSeconds,
	}, nil
}

func (l *RedisLedger) Init(ctx context.Context) error {
	return l.client.Del(ctx, redisLedgerKey).Err()
}

func (l *RedisLedger) CheckFresh(ctx context.Context, digest domain.Digest, asOf int64) (bool, error) {
	score, err := l.client.ZScore(ctx, redisLedgerKey, member(digest)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return asOf-int64(score) >= l.retention, nil
}

func (l *RedisLedger) Consume(ctx context.Context, digest domain.Digest, producedAt int64) error {
	cutoff := producedAt - l.retention
	result, err := redisConsumeScript.Run(
		ctx,
		l.client,
		[]string{redisLedgerKey},
		producedAt,
		cutoff,
		l.capacity,
		member(digest),
	).Int64()
	if err != nil {
		return err
	}
	switch result {
	case -1:
		return domain.ErrLedgerFull
	case -2:
		return domain.ErrDecisionAlreadyUsed
	}
	if result < 0 {
		return fmt.Errorf("unexpected replay ledger response %d", result)
	}
	return nil
}

func (l *RedisLedger) Release(ctx context.Context, digest domain.Digest) error {
	return l.client.ZRem(ctx, redisLedgerKey, member(digest)).Err()
}

func member(digest domain.Digest) string {
	return hex.EncodeToString(digest[:])
}
