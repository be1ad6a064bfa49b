package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agemilang/portfolio-api/internal/domain"
)

// PostgresRepository keeps subscribers in Postgres and delegates rate-limit
// counters to Redis, which has native TTLs.
type PostgresRepository struct {
	pool *pgxpool.Pool
	*AttemptCounter
}

func NewPostgresRepository(pg *PostgresStore, attempts *AttemptCounter) *PostgresRepository {
	return &PostgresRepository{pool: pg.Pool(), AttemptCounter: attempts}
}

// AddSubscriber upserts by email. On conflict the token and confirmed flag
// are overwritten; subscribed_at keeps its original value.
func (r *PostgresRepository) AddSubscriber(ctx context.Context, sub domain.Subscriber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO newsletter_subscribers (email, subscribed_at, confirmed, confirm_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			confirmed = EXCLUDED.confirmed,
			confirm_token = EXCLUDED.confirm_token,
			updated_at = NOW()
	`, sub.Email, sub.SubscribedAt, sub.Confirmed, sub.ConfirmToken)
	if err != nil {
		return &domain.RepositoryError{Op: "add subscriber", Err: err}
	}
	return nil
}

func (r *PostgresRepository) RemoveSubscriber(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM newsletter_subscribers WHERE email = $1`, email)
	if err != nil {
		return &domain.RepositoryError{Op: "remove subscriber", Err: err}
	}
	return nil
}

// GetSubscriber returns nil, nil when no row exists.
func (r *PostgresRepository) GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := r.pool.QueryRow(ctx, `
		SELECT email, subscribed_at, confirmed, confirm_token
		FROM newsletter_subscribers WHERE email = $1
	`, email).Scan(&sub.Email, &sub.SubscribedAt, &sub.Confirmed, &sub.ConfirmToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &domain.RepositoryError{Op: "get subscriber", Err: err}
	}
	return &sub, nil
}

// ConfirmSubscriber returns domain.ErrNotFound when no row matches.
func (r *PostgresRepository) ConfirmSubscriber(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE newsletter_subscribers SET confirmed = TRUE, updated_at = NOW()
		WHERE email = $1
	`, email)
	if err != nil {
		return &domain.RepositoryError{Op: "confirm subscriber", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetAllConfirmedSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email, subscribed_at, confirmed, confirm_token
		FROM newsletter_subscribers
		WHERE confirmed = TRUE
	`)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
	}
	defer rows.Close()

	subscribers := []domain.Subscriber{}
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.Email, &sub.SubscribedAt, &sub.Confirmed, &sub.ConfirmToken); err != nil {
			return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "get confirmed subscribers", Err: err}
	}

	return subscribers, nil
}
