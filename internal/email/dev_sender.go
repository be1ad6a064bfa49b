package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DevSender writes each message to disk instead of sending it. Every message
// produces an .html body and a .json metadata file sharing one base name.
type DevSender struct {
	dir    string
	logger *slog.Logger
}

func NewDevSender(dir string, logger *slog.Logger) *DevSender {
	return &DevSender{dir: dir, logger: logger}
}

type devMetadata struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ReplyTo string    `json:"reply_to,omitempty"`
	Subject string    `json:"subject"`
	Tag     string    `json:"tag,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

func (s *DevSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	base := filepath.Join(s.dir, fmt.Sprintf("%s_%s", now.Format("20060102T150405"), id))

	if err := os.WriteFile(base+".html", []byte(msg.HTML), 0o644); err != nil {
		return "", fmt.Errorf("writing html body: %w", err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		ID:      id,
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Tag:     msg.Tag,
		SentAt:  now,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(base+".json", meta, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("email written to disk",
			"id", id,
			"to", msg.To,
			"subject", msg.Subject,
			"path", base+".html",
		)
	}
	return id, nil
}
