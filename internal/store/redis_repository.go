package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agemilang/portfolio-api/internal/domain"
)

const (
	subscriberKeyPrefix = "newsletter:subscriber:"
	subscribersSetKey   = "newsletter:subscribers"
)

// RedisRepository stores each subscriber as a hash and tracks every email in
// a set for enumeration:
//
//	newsletter:subscriber:{email} -> hash {email, subscribedAt, confirmed, confirmToken}
//	newsletter:subscribers        -> set of emails
//	newsletter:rate:{identifier}  -> counter, TTL 1h
type RedisRepository struct {
	client *redis.Client
	*AttemptCounter
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, AttemptCounter: NewAttemptCounter(client)}
}

func subscriberKey(email string) string {
	return subscriberKeyPrefix + email
}

// AddSubscriber upserts the hash and set membership in one MULTI/EXEC.
// subscribedAt is only written when the hash does not have it yet.
func (r *RedisRepository) AddSubscriber(ctx context.Context, sub domain.Subscriber) error {
	key := subscriberKey(sub.Email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"email", sub.Email,
			"confirmed", strconv.FormatBool(sub.Confirmed),
			"confirmToken", sub.ConfirmToken,
		)
		pipe.HSetNX(ctx, key, "subscribedAt", sub.SubscribedAt.UTC().Format(time.RFC3339Nano))
		pipe.SAdd(ctx, subscribersSetKey, sub.Email)
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "add subscriber", Err: err}
	}
	return nil
}

func (r *RedisRepository) RemoveSubscriber(ctx context.Context, email string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, subscriberKey(email))
		pipe.SRem(ctx, subscribersSetKey, email)
		return nil
	})
	if err != nil {
		return &domain.RepositoryError{Op: "remove subscriber", Err: err}
	}
	return nil
}

// GetSubscriber returns nil, nil when the hash does not exist.
func (r *RedisRepository) GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	fields, err := r.client.HGetAll(ctx, subscriberKey(email)).Result()
	if err != nil {
		return nil, &domain.RepositoryError{Op: "get subscriber", Err: err}
	}
	if len(fields) == 0 {
		return nil, nil
	}

	sub, err := subscriberFromHash(fields)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "get subscriber", Err: err}
	}
	return sub, nil
}

// Sets the flag only on an existing hash, so a confirm racing an unsubscribe
// cannot leave a partial record behind.
var confirmScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
redis.call('HSET', KEYS[1], 'confirmed', 'true')
return 1
`)

// ConfirmSubscriber returns domain.ErrNotFound when the hash is gone.
func (r *RedisRepository) ConfirmSubscriber(ctx context.Context, email string) error {
	updated, err := confirmScript.Run(ctx, r.client, []string{subscriberKey(email)}).Int64()
	if err != nil {
		return &domain.RepositoryError{Op: "confirm subscriber", Err: err}
	}
	if updated == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RedisRepository) GetAllConfirmedSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	emails, err := r.client.SMembers(ctx, subscribersSetKey).Result()
	if err != nil {
		return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
	}

	subscribers := []domain.Subscriber{}
	if len(emails) == 0 {
		return subscribers, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(emails))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, email := range emails {
			cmds[i] = pipe.HGetAll(ctx, subscriberKey(email))
		}
		return nil
	})
	if err != nil {
		return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		sub, err := subscriberFromHash(fields)
		if err != nil {
			return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
		}
		if sub.Confirmed {
			subscribers = append(subscribers, *sub)
		}
	}

	return subscribers, nil
}

func subscriberFromHash(fields map[string]string) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{
		Email:        fields["email"],
		Confirmed:    fields["confirmed"] == "true",
		ConfirmToken: fields["confirmToken"],
	}
	if raw := fields["subscribedAt"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing subscribedAt for %s: %w", sub.Email, err)
		}
		sub.SubscribedAt = t
	}
	return sub, nil
}
