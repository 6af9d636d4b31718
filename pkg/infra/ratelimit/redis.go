package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisKeyFormat = "gatekeeper:rate:%s"

type RedisCounterOpts struct {
	UuidProvider func() uuid.UUID
}

// RedisCounter shares the sliding window across gateway replicas. Every hit
// is a member of a sorted set scored by its unix millisecond timestamp.
type RedisCounter struct {
	redis        *redis.Client
	uuidProvider func() uuid.UUID
}

func NewRedisCounter(client *redis.Client, opts *RedisCounterOpts) *RedisCounter {
	uuidProvider := uuid.New
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}
	return &RedisCounter{
		redis:        client,
		uuidProvider: uuidProvider,
	}
}

func RedisKey(key string) string {
	return fmt.Sprintf(redisKeyFormat, key)
}

func (r *RedisCounter) Hit(ctx context.Context, key string, now time.Time) (Counts, error) {
	redisKey := RedisKey(key)
	nowMs := now.UnixMilli()
	hourStart := strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10)
	minuteStart := strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)

	pipe := r.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", hourStart)
	pipe.ZAdd(ctx, redisKey, &redis.Z{
		Score:  float64(nowMs),
		Member: strconv.FormatInt(nowMs, 10) + ":" + r.uuidProvider().String(),
	})
	minute := pipe.ZCount(ctx, redisKey, "("+minuteStart, "+inf")
	hour := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return Counts{}, fmt.Errorf("failed to execute rate counter pipeline: %w", err)
	}
	return Counts{Minute: minute.Val(), Hour: hour.Val()}, nil
}
