package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/agemilang/portfolio-api/internal/domain"
)

// MailerConfig carries the addresses and branding used in outgoing mail.
type MailerConfig struct {
	From      string
	ContactTo string
	SiteName  string
	SiteURL   string
}

// Mailer renders and sends the site's transactional emails.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	cfg      MailerConfig
}

func NewMailer(sender Sender, cfg MailerConfig) (*Mailer, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Mailer{sender: sender, renderer: renderer, cfg: cfg}, nil
}

// SendContactFormEmail forwards a contact form submission to the site owner.
// Replies go to the submitter.
func (m *Mailer) SendContactFormEmail(ctx context.Context, req domain.ContactRequest) (string, error) {
	body, err := m.renderer.Contact(contactData{
		SiteName:     m.cfg.SiteName,
		Name:         req.Name,
		Email:        req.Email,
		MessageLines: splitLines(req.Message),
	})
	if err != nil {
		return "", &domain.EmailDeliveryError{Kind: "contact", Err: err}
	}

	return m.send(ctx, "contact", Message{
		From:    m.cfg.From,
		To:      m.cfg.ContactTo,
		ReplyTo: req.Email,
		Subject: fmt.Sprintf("New Contact Form Message from %s - %s", req.Name, m.cfg.SiteName),
		HTML:    body,
		Tag:     "contact",
	})
}

func (m *Mailer) SendNewsletterConfirmation(ctx context.Context, to, confirmURL string) (string, error) {
	body, err := m.renderer.Confirm(confirmData{SiteName: m.cfg.SiteName, ConfirmURL: confirmURL})
	if err != nil {
		return "", &domain.EmailDeliveryError{Kind: "confirmation", Err: err}
	}

	return m.send(ctx, "confirmation", Message{
		From:    m.cfg.From,
		To:      to,
		Subject: "Confirm your subscription - " + m.cfg.SiteName,
		HTML:    body,
		Tag:     "newsletter-confirm",
	})
}

func (m *Mailer) SendNewsletterWelcome(ctx context.Context, to string) (string, error) {
	body, err := m.renderer.Welcome(welcomeData{SiteName: m.cfg.SiteName, SiteURL: m.cfg.SiteURL})
	if err != nil {
		return "", &domain.EmailDeliveryError{Kind: "welcome", Err: err}
	}

	return m.send(ctx, "welcome", Message{
		From:    m.cfg.From,
		To:      to,
		Subject: "Welcome to the newsletter! - " + m.cfg.SiteName,
		HTML:    body,
		Tag:     "newsletter-welcome",
	})
}

func (m *Mailer) SendNewsletterDigest(ctx context.Context, to string, posts []domain.DigestPost, unsubscribeURL string) (string, error) {
	body, err := m.renderer.Digest(digestData{
		SiteName:       m.cfg.SiteName,
		BlogURL:        strings.TrimRight(m.cfg.SiteURL, "/") + "/en/blogs",
		Posts:          posts,
		UnsubscribeURL: unsubscribeURL,
	})
	if err != nil {
		return "", &domain.EmailDeliveryError{Kind: "digest", Err: err}
	}

	return m.send(ctx, "digest", Message{
		From:    m.cfg.From,
		To:      to,
		Subject: "New posts from " + m.cfg.SiteName,
		HTML:    body,
		Tag:     "newsletter-digest",
	})
}

func (m *Mailer) send(ctx context.Context, kind string, msg Message) (string, error) {
	id, err := m.sender.Send(ctx, msg)
	if err != nil {
		return "", &domain.EmailDeliveryError{Kind: kind, Err: err}
	}
	if id == "" {
		return "", &domain.EmailDeliveryError{Kind: kind, Err: ErrNoMessageID}
	}
	return id, nil
}
