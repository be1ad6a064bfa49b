package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/agemilang/portfolio-api/internal/domain"
)

// NewsletterService is the subscription lifecycle the handlers drive.
type NewsletterService interface {
	Subscribe(ctx context.Context, req domain.SubscribeRequest, baseURL string) (domain.SubscribeResponse, error)
	ConfirmSubscription(ctx context.Context, email, token string) error
	Unsubscribe(ctx context.Context, email, token string) error
	Authorize(secret string) error
	SendDigest(ctx context.Context, posts []domain.DigestPost, secret, baseURL string) (domain.DigestResult, error)
}

// RateLimiter counts subscribe attempts per caller.
type RateLimiter interface {
	AllowAttempt(ctx context.Context, identifier string) (bool, error)
}

// PostSource resolves digest slugs to published posts.
type PostSource interface {
	PostBySlug(slug string) (*domain.BlogPost, error)
}

type NewsletterHandler struct {
	service NewsletterService
	limiter RateLimiter
	posts   PostSource
	baseURL string
	logger  *slog.Logger
}

func NewNewsletterHandler(service NewsletterService, limiter RateLimiter, posts PostSource, baseURL string, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		service: service,
		limiter: limiter,
		posts:   posts,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	allowed, err := h.limiter.AllowAttempt(r.Context(), ip)
	if err != nil {
		// Counter unavailable; let the request through.
		h.logger.Warn("rate limit check failed", "ip", ip, "error", err)
		allowed = true
	}
	if !allowed {
		respondError(w, http.StatusTooManyRequests, "Too many subscription attempts. Please try again later.")
		return
	}

	var req domain.SubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Subscribe(r.Context(), req, requestBaseURL(r, h.baseURL))
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, strings.Join(vErr.Messages, ", "))
			return
		}
		h.logger.Error("subscribe failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to subscribe. Please try again later.")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *NewsletterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	email, token, ok := emailAndToken(w, r)
	if !ok {
		return
	}

	if err := h.service.ConfirmSubscription(r.Context(), email, token); err != nil {
		h.logger.Warn("confirm failed", "email", email, "error", err)
		h.redirectError(w, r, statusMessage(err, "Confirmation failed"))
		return
	}
	h.redirectStatus(w, r, "type=confirmed")
}

func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, token, ok := emailAndToken(w, r)
	if !ok {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), email, token); err != nil {
		h.logger.Warn("unsubscribe failed", "email", email, "error", err)
		h.redirectError(w, r, statusMessage(err, "Unsubscribe failed"))
		return
	}
	h.redirectStatus(w, r, "type=unsubscribed")
}

func (h *NewsletterHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendDigestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Secret == "" {
		respondError(w, http.StatusUnauthorized, "Secret is required")
		return
	}
	if err := h.service.Authorize(req.Secret); err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if len(req.PostSlugs) == 0 {
		respondError(w, http.StatusBadRequest, "Post slugs are required")
		return
	}

	baseURL := requestBaseURL(r, h.baseURL)
	posts := make([]domain.DigestPost, 0, len(req.PostSlugs))
	for _, slug := range req.PostSlugs {
		post, err := h.posts.PostBySlug(slug)
		if err != nil {
			h.logger.Error("failed to load post", "slug", slug, "error", err)
			continue
		}
		if post == nil {
			continue
		}
		posts = append(posts, domain.DigestPost{
			Title:   post.Title,
			Excerpt: post.Excerpt,
			URL:     baseURL + "/en/blogs/" + post.Slug,
			Date:    post.Date,
		})
	}
	if len(posts) == 0 {
		respondError(w, http.StatusNotFound, "No valid posts found")
		return
	}

	result, err := h.service.SendDigest(r.Context(), posts, req.Secret, baseURL)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.logger.Error("digest send failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to send digest")
		return
	}

	respondJSON(w, http.StatusOK, domain.SendDigestResponse{
		Success: true,
		Message: fmt.Sprintf("Digest sent to %d subscriber(s)", result.Sent),
		Sent:    result.Sent,
	})
}

func emailAndToken(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	q := r.URL.Query()
	email, token := q.Get("email"), q.Get("token")
	if email == "" || token == "" {
		respondError(w, http.StatusBadRequest, "Email and token are required")
		return "", "", false
	}
	return email, token, true
}

func (h *NewsletterHandler) redirectStatus(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, "/"+requestLocale(r)+"/newsletter/status?"+query, http.StatusFound)
}

func (h *NewsletterHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	h.redirectStatus(w, r, "type=error&message="+url.QueryEscape(message))
}

// statusMessage turns a service error into text safe to show on the status
// page. Backend failures fall back to a generic message.
func statusMessage(err error, fallback string) string {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return strings.Join(vErr.Messages, ", ")
	case errors.Is(err, domain.ErrNotFound):
		return "Subscriber not found"
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		return "Subscription already confirmed"
	case errors.Is(err, domain.ErrInvalidToken):
		return "Invalid or expired link"
	default:
		return fallback
	}
}
