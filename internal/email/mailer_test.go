package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agemilang/portfolio-api/internal/domain"
)

type recordingSender struct {
	sent []Message
	id   string
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return s.id, nil
}

func newTestMailer(t *testing.T, sender Sender) *Mailer {
	t.Helper()
	m, err := NewMailer(sender, MailerConfig{
		From:      "newsletter@example.com",
		ContactTo: "owner@example.com",
		SiteName:  "Portfolio Web",
		SiteURL:   "https://example.com",
	})
	require.NoError(t, err)
	return m
}

func TestMailer_ContactFormEmail(t *testing.T) {
	sender := &recordingSender{id: "msg-1"}
	m := newTestMailer(t, sender)

	id, err := m.SendContactFormEmail(context.Background(), domain.ContactRequest{
		Name:    "<script>alert(1)</script>",
		Email:   "visitor@example.com",
		Message: "line one\nline two <b>bold</b>",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "visitor@example.com", msg.ReplyTo)
	assert.Equal(t, "New Contact Form Message from <script>alert(1)</script> - Portfolio Web", msg.Subject)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, msg.HTML, "line one<br>line two &lt;b&gt;bold&lt;/b&gt;")
}

func TestMailer_Confirmation(t *testing.T) {
	sender := &recordingSender{id: "msg-2"}
	m := newTestMailer(t, sender)

	confirmURL := "https://example.com/api/newsletter/confirm?email=a%40b.com&token=abc"
	id, err := m.SendNewsletterConfirmation(context.Background(), "a@b.com", confirmURL)
	require.NoError(t, err)
	assert.Equal(t, "msg-2", id)

	msg := sender.sent[0]
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "Confirm your subscription - Portfolio Web", msg.Subject)
	assert.Contains(t, msg.HTML, "https://example.com/api/newsletter/confirm?email=a%40b.com&amp;token=abc")
}

func TestMailer_Welcome(t *testing.T) {
	sender := &recordingSender{id: "msg-3"}
	m := newTestMailer(t, sender)

	_, err := m.SendNewsletterWelcome(context.Background(), "a@b.com")
	require.NoError(t, err)

	msg := sender.sent[0]
	assert.Equal(t, "Welcome to the newsletter! - Portfolio Web", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://example.com"`)
}

func TestMailer_Digest(t *testing.T) {
	sender := &recordingSender{id: "msg-4"}
	m := newTestMailer(t, sender)

	posts := []domain.DigestPost{
		{
			Title:   "Go <generics>",
			Excerpt: "Types & <em>things</em>",
			URL:     "https://example.com/en/blogs/go-generics",
			Date:    "2024-03-05",
		},
		{
			Title: "Undated",
			URL:   "https://example.com/en/blogs/undated",
			Date:  "sometime",
		},
	}

	_, err := m.SendNewsletterDigest(context.Background(), "a@b.com", posts, "https://example.com/api/newsletter/unsubscribe?email=a%40b.com&token=t")
	require.NoError(t, err)

	msg := sender.sent[0]
	assert.Equal(t, "New posts from Portfolio Web", msg.Subject)
	assert.Contains(t, msg.HTML, "Go &lt;generics&gt;")
	assert.Contains(t, msg.HTML, "Types &amp; &lt;em&gt;things&lt;/em&gt;")
	assert.Contains(t, msg.HTML, "March 5, 2024")
	assert.Contains(t, msg.HTML, "sometime")
	assert.Contains(t, msg.HTML, `href="https://example.com/en/blogs/go-generics"`)
	assert.Contains(t, msg.HTML, "unsubscribe?email=a%40b.com&amp;token=t")
	assert.Equal(t, 2, strings.Count(msg.HTML, "Read more"))
}

func TestMailer_SenderFailure(t *testing.T) {
	sendErr := errors.New("connection refused")
	m := newTestMailer(t, &recordingSender{err: sendErr})

	_, err := m.SendNewsletterWelcome(context.Background(), "a@b.com")
	require.Error(t, err)

	var deliveryErr *domain.EmailDeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "welcome", deliveryErr.Kind)
	assert.ErrorIs(t, err, sendErr)
}

func TestMailer_EmptyMessageID(t *testing.T) {
	m := newTestMailer(t, &recordingSender{id: ""})

	_, err := m.SendNewsletterConfirmation(context.Background(), "a@b.com", "https://example.com")
	require.Error(t, err)

	var deliveryErr *domain.EmailDeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "confirmation", deliveryErr.Kind)
	assert.ErrorIs(t, err, ErrNoMessageID)
}

func TestLongDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "January 15, 2024"},
		{"2023-12-01T10:00:00Z", "December 1, 2023"},
		{"not a date", "not a date"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, longDate(tt.in), tt.in)
	}
}
