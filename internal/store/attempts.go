package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agemilang/portfolio-api/internal/domain"
)

const (
	DefaultAttemptLimit  = 3
	DefaultAttemptWindow = time.Hour

	rateKeyPrefix = "newsletter:rate:"
)

// AttemptCounter is a fixed-window counter per caller identifier. The expiry
// is set once, when the counter goes from absent to 1, and is never refreshed.
type AttemptCounter struct {
	client *redis.Client
	limit  int
	window time.Duration
	script *redis.Script
}

// Returns 1 and increments when the caller is under the limit, 0 otherwise.
// A denied call does not touch the counter.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key) or '0')
if count >= limit then
    return 0
end

count = redis.call('INCR', key)
if count == 1 then
    redis.call('EXPIRE', key, window)
end
return 1
`)

func NewAttemptCounter(client *redis.Client) *AttemptCounter {
	return &AttemptCounter{
		client: client,
		limit:  DefaultAttemptLimit,
		window: DefaultAttemptWindow,
		script: fixedWindowScript,
	}
}

func rateKey(identifier string) string {
	return rateKeyPrefix + identifier
}

// IsRateLimited reports whether the counter exists and has reached the limit.
func (c *AttemptCounter) IsRateLimited(ctx context.Context, identifier string) (bool, error) {
	count, err := c.client.Get(ctx, rateKey(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, &domain.RepositoryError{Op: "check rate limit", Err: err}
	}
	return count >= c.limit, nil
}

// RecordAttempt increments the counter, starting the window on first use.
func (c *AttemptCounter) RecordAttempt(ctx context.Context, identifier string) error {
	key := rateKey(identifier)
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return &domain.RepositoryError{Op: "record attempt", Err: err}
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, c.window).Err(); err != nil {
			return &domain.RepositoryError{Op: "record attempt", Err: err}
		}
	}
	return nil
}

// AllowAttempt checks and records in a single script so concurrent requests
// from one identifier cannot overshoot the limit.
func (c *AttemptCounter) AllowAttempt(ctx context.Context, identifier string) (bool, error) {
	result, err := c.script.Run(ctx, c.client, []string{rateKey(identifier)},
		c.limit, int(c.window.Seconds()),
	).Int64()
	if err != nil {
		return false, &domain.RepositoryError{Op: "record attempt", Err: err}
	}
	return result == 1, nil
}
