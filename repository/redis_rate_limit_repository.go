package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mentorhub/config"
	"mentorhub/entity"
	"mentorhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitRepository implements the issuance window with one
// sorted set per (identity, purpose), scored by issuance time. Useful
// when the otps table grows large and counting rows per request gets
// expensive.
type RedisRateLimitRepository struct {
	client *redis.Client
	ctx    context.Context
	config *config.Config
	logger *logger.Logger
}

// NewRedisRateLimitRepository creates a new Redis rate limit repository
func NewRedisRateLimitRepository(client *redis.Client, cfg *config.Config, logger *logger.Logger) RateLimitRepository {
	return &RedisRateLimitRepository{
		client: client,
		ctx:    context.Background(),
		config: cfg,
		logger: logger,
	}
}

func (r *RedisRateLimitRepository) key(identity string, purpose entity.OTPPurpose) string {
	return fmt.Sprintf("rate_limit:otp:%s:%s", purpose, identity)
}

// CountSince prunes aged-out members and returns the in-window count
// together with the oldest remaining issuance time.
func (r *RedisRateLimitRepository) CountSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error) {
	key := r.key(identity, purpose)
	minScore := strconv.FormatInt(since.UnixNano(), 10)

	// Prune and read in one round trip
	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(r.ctx, key, "-inf", "("+minScore)
	countCmd := pipe.ZCard(r.ctx, key)
	oldestCmd := pipe.ZRangeWithScores(r.ctx, key, 0, 0)
	if _, err := pipe.Exec(r.ctx); err != nil && err != redis.Nil {
		return 0, nil, fmt.Errorf("failed to count issuances: %w", err)
	}

	count := int(countCmd.Val())
	entries := oldestCmd.Val()

	r.logger.Debugw("Rate limit window read",
		"identity", identity,
		"purpose", purpose,
		"count", count)

	if len(entries) == 0 {
		return count, nil, nil
	}

	oldest := time.Unix(0, int64(entries[0].Score))
	return count, &oldest, nil
}

// RecordIssuance adds one issuance to the window and refreshes the key
// TTL so abandoned windows expire on their own.
func (r *RedisRateLimitRepository) RecordIssuance(identity string, purpose entity.OTPPurpose, at time.Time) error {
	key := r.key(identity, purpose)

	pipe := r.client.Pipeline()
	pipe.ZAdd(r.ctx, key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(r.ctx, key, r.config.RateLimit.WindowDuration)
	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to record issuance: %w", err)
	}

	r.logger.Debugw("Issuance recorded",
		"identity", identity,
		"purpose", purpose,
		"at", at.Format(time.RFC3339))

	return nil
}

// Cleanup repairs limiter keys that somehow lost their TTL. Expired
// members are pruned on read, so that is all there is to do.
func (r *RedisRateLimitRepository) Cleanup(olderThan time.Time) error {
	pattern := "rate_limit:otp:*"
	keys, err := r.client.Keys(r.ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to get rate limit keys: %w", err)
	}

	repaired := 0
	for _, key := range keys {
		ttl, err := r.client.TTL(r.ctx, key).Result()
		if err != nil {
			r.logger.Warnw("Failed to get TTL for key", "key", key, "error", err)
			continue
		}

		// TTL of -1 means the key has no expiration set
		if ttl == -1 {
			if err := r.client.Expire(r.ctx, key, r.config.RateLimit.WindowDuration).Err(); err != nil {
				r.logger.Warnw("Failed to set TTL for key", "key", key, "error", err)
			} else {
				repaired++
			}
		}
	}

	if repaired > 0 {
		r.logger.Infow("Rate limit cleanup completed", "keys_with_ttl_added", repaired)
	}

	return nil
}
