// Package newsletter implements the double opt-in subscription lifecycle:
// subscribe, confirm, digest delivery and unsubscribe.
package newsletter

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/agemilang/portfolio-api/internal/domain"
	"github.com/agemilang/portfolio-api/internal/validation"
)

const (
	MessageAlreadySubscribed = "You are already subscribed!"
	MessageCheckEmail        = "Check your email to confirm your subscription!"
)

// Repository is the storage port. Store adapters for Postgres and Redis both
// satisfy it.
type Repository interface {
	AddSubscriber(ctx context.Context, sub domain.Subscriber) error
	RemoveSubscriber(ctx context.Context, email string) error
	GetSubscriber(ctx context.Context, email string) (*domain.Subscriber, error)
	ConfirmSubscriber(ctx context.Context, email string) error
	GetAllConfirmedSubscribers(ctx context.Context) ([]domain.Subscriber, error)

	IsRateLimited(ctx context.Context, identifier string) (bool, error)
	RecordAttempt(ctx context.Context, identifier string) error
	AllowAttempt(ctx context.Context, identifier string) (bool, error)
}

// Mailer sends the newsletter emails and returns provider message ids.
type Mailer interface {
	SendNewsletterConfirmation(ctx context.Context, to, confirmURL string) (string, error)
	SendNewsletterWelcome(ctx context.Context, to string) (string, error)
	SendNewsletterDigest(ctx context.Context, to string, posts []domain.DigestPost, unsubscribeURL string) (string, error)
}

// Config is read once at startup.
type Config struct {
	// AdminSecret authorizes digest sends. Empty disables sending entirely.
	AdminSecret string
}

type Service struct {
	repo   Repository
	mailer Mailer
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, mailer Mailer, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a pending subscriber and mails the confirmation link.
// Active subscribers are left untouched. A pending subscriber gets a fresh
// token, which invalidates any earlier confirmation link.
func (s *Service) Subscribe(ctx context.Context, req domain.SubscribeRequest, baseURL string) (domain.SubscribeResponse, error) {
	req, err := validation.ValidateSubscribeRequest(req)
	if err != nil {
		return domain.SubscribeResponse{}, err
	}

	existing, err := s.repo.GetSubscriber(ctx, req.Email)
	if err != nil {
		return domain.SubscribeResponse{}, err
	}
	if existing != nil && existing.Confirmed {
		return domain.SubscribeResponse{Success: true, Message: MessageAlreadySubscribed}, nil
	}

	token, err := generateToken()
	if err != nil {
		return domain.SubscribeResponse{}, err
	}

	sub := domain.Subscriber{
		Email:        req.Email,
		SubscribedAt: s.now().UTC(),
		Confirmed:    false,
		ConfirmToken: token,
	}
	if err := s.repo.AddSubscriber(ctx, sub); err != nil {
		return domain.SubscribeResponse{}, err
	}

	confirmURL := buildLink(baseURL, "/api/newsletter/confirm", sub.Email, token)
	if _, err := s.mailer.SendNewsletterConfirmation(ctx, sub.Email, confirmURL); err != nil {
		return domain.SubscribeResponse{}, err
	}

	s.logger.Info("subscriber pending confirmation", "email", sub.Email)
	return domain.SubscribeResponse{Success: true, Message: MessageCheckEmail}, nil
}

// ConfirmSubscription activates a pending subscriber and sends the welcome
// email.
func (s *Service) ConfirmSubscription(ctx context.Context, email, token string) error {
	req, err := validation.ValidateConfirmRequest(email, token)
	if err != nil {
		return err
	}

	sub, err := s.repo.GetSubscriber(ctx, req.Email)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound
	}
	if sub.Confirmed {
		return domain.ErrAlreadyConfirmed
	}
	if !tokensEqual(sub.ConfirmToken, req.Token) {
		return domain.ErrInvalidToken
	}

	if err := s.repo.ConfirmSubscriber(ctx, req.Email); err != nil {
		return err
	}
	if _, err := s.mailer.SendNewsletterWelcome(ctx, req.Email); err != nil {
		return err
	}

	s.logger.Info("subscriber confirmed", "email", req.Email)
	return nil
}

// Unsubscribe deletes the subscriber, pending or active.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) error {
	req, err := validation.ValidateUnsubscribeRequest(email, token)
	if err != nil {
		return err
	}

	sub, err := s.repo.GetSubscriber(ctx, req.Email)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound
	}
	if !tokensEqual(sub.ConfirmToken, req.Token) {
		return domain.ErrInvalidToken
	}

	if err := s.repo.RemoveSubscriber(ctx, req.Email); err != nil {
		return err
	}

	s.logger.Info("subscriber removed", "email", req.Email)
	return nil
}

// Authorize checks the admin secret. It fails when no secret is configured.
func (s *Service) Authorize(secret string) error {
	if s.cfg.AdminSecret == "" || !tokensEqual(s.cfg.AdminSecret, secret) {
		return domain.ErrUnauthorized
	}
	return nil
}

// SendDigest mails posts to every confirmed subscriber, one at a time.
// Individual delivery failures are logged and skipped.
func (s *Service) SendDigest(ctx context.Context, posts []domain.DigestPost, secret, baseURL string) (domain.DigestResult, error) {
	if err := s.Authorize(secret); err != nil {
		return domain.DigestResult{}, err
	}

	subscribers, err := s.repo.GetAllConfirmedSubscribers(ctx)
	if err != nil {
		return domain.DigestResult{}, err
	}

	var result domain.DigestResult
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		unsubscribeURL := buildLink(baseURL, "/api/newsletter/unsubscribe", sub.Email, sub.ConfirmToken)
		if _, err := s.mailer.SendNewsletterDigest(ctx, sub.Email, posts, unsubscribeURL); err != nil {
			s.logger.Error("digest delivery failed", "email", sub.Email, "error", err)
			continue
		}
		result.Sent++
	}

	s.logger.Info("digest sent",
		"posts", len(posts),
		"subscribers", len(subscribers),
		"sent", result.Sent,
	)
	return result, nil
}

func buildLink(baseURL, path, email, token string) string {
	return fmt.Sprintf("%s%s?email=%s&token=%s",
		strings.TrimRight(baseURL, "/"), path, url.QueryEscape(email), url.QueryEscape(token))
}

// generateToken returns 32 random bytes as 64 lowercase hex characters.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
