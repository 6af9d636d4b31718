package blocklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const (
	blockKeyFormat = "gatekeeper:block:%s"
	blockIndexKey  = "gatekeeper:blocks"
)

// RedisStore shares blocks across replicas. Each block is a JSON value with
// a matching TTL; a sorted set scored by expiry indexes the active IPs.
type RedisStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisStore(client *redis.Client, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{redis: client, now: now}
}

func BlockKey(ip string) string {
	return fmt.Sprintf(blockKeyFormat, ip)
}

func (s *RedisStore) Block(ctx context.Context, entry *security.BlockEntry) error {
	if entry == nil || entry.IP == "" {
		return security.ErrInvalidIP
	}
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal block entry: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, BlockKey(entry.IP), data, ttl)
	pipe.ZAdd(ctx, blockIndexKey, &redis.Z{
		Score:  float64(entry.ExpiresAt.UnixMilli()),
		Member: entry.IP,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store block for %s: %w", entry.IP, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ip string) (*security.BlockEntry, error) {
	data, err := s.redis.Get(ctx, BlockKey(ip)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, security.ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read block for %s: %w", ip, err)
	}
	var entry security.BlockEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode block for %s: %w", ip, err)
	}
	if !entry.ActiveAt(s.now()) {
		return nil, security.ErrBlockNotFound
	}
	return &entry, nil
}

func (s *RedisStore) Unblock(ctx context.Context, ip string) error {
	pipe := s.redis.TxPipeline()
	del := pipe.Del(ctx, BlockKey(ip))
	pipe.ZRem(ctx, blockIndexKey, ip)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to unblock %s: %w", ip, err)
	}
	if del.Val() == 0 {
		return security.ErrBlockNotFound
	}
	return nil
}

func (s *RedisStore) pruneIndex(ctx context.Context) error {
	now := strconv.FormatInt(s.now().UnixMilli(), 10)
	return s.redis.ZRemRangeByScore(ctx, blockIndexKey, "-inf", now).Err()
}

// List returns active blocks, latest expiry first.
func (s *RedisStore) List(ctx context.Context) ([]*security.BlockEntry, error) {
	if err := s.pruneIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to prune block index: %w", err)
	}
	ips, err := s.redis.ZRevRange(ctx, blockIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	if len(ips) == 0 {
		return []*security.BlockEntry{}, nil
	}

	keys := make([]string, len(ips))
	for i, ip := range ips {
		keys[i] = BlockKey(ip)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}

	now := s.now()
	out := make([]*security.BlockEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry security.BlockEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.ActiveAt(now) {
			out = append(out, &entry)
		}
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	if err := s.pruneIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to prune block index: %w", err)
	}
	n, err := s.redis.ZCard(ctx, blockIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count blocks: %w", err)
	}
	return int(n), nil
}
