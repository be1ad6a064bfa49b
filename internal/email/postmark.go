package email

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers mail through the Postmark API.
type PostmarkSender struct {
	client *postmark.Client
}

// NewPostmarkSender wraps a configured client. Tests and local development
// point client.BaseURL at a mock server.
func NewPostmarkSender(client *postmark.Client) *PostmarkSender {
	return &PostmarkSender{client: client}
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       msg.From,
		To:         msg.To,
		ReplyTo:    msg.ReplyTo,
		Subject:    msg.Subject,
		HTMLBody:   msg.HTML,
		Tag:        msg.Tag,
		TrackOpens: false,
	})
	if err != nil {
		return "", fmt.Errorf("postmark: %w", err)
	}
	if resp.ErrorCode > 0 {
		return "", fmt.Errorf("postmark: error code %d: %s", resp.ErrorCode, resp.Message)
	}
	if resp.MessageID == "" {
		return "", ErrNoMessageID
	}
	return resp.MessageID, nil
}
