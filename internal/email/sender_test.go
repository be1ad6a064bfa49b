package email

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevSender_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "emails")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := NewDevSender(dir, logger)

	id, err := sender.Send(context.Background(), Message{
		From:    "from@example.com",
		To:      "to@example.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
		Tag:     "test",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "message id should be a uuid")

	htmlFiles, err := filepath.Glob(filepath.Join(dir, "*.html"))
	require.NoError(t, err)
	require.Len(t, htmlFiles, 1)
	body, err := os.ReadFile(htmlFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(body))

	jsonPath := strings.TrimSuffix(htmlFiles[0], ".html") + ".json"
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var meta devMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "to@example.com", meta.To)
	assert.Equal(t, "Hello", meta.Subject)
}

func TestDevSender_CancelledContext(t *testing.T) {
	sender := NewDevSender(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.Send(ctx, Message{To: "to@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func newPostmarkTestSender(t *testing.T, handler http.HandlerFunc) *PostmarkSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := postmark.NewClient("server-token", "")
	client.BaseURL = srv.URL
	return NewPostmarkSender(client)
}

func TestPostmarkSender_Success(t *testing.T) {
	var got map[string]any
	sender := newPostmarkTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"To":"to@example.com","MessageID":"pm-123","ErrorCode":0,"Message":"OK"}`))
	})

	id, err := sender.Send(context.Background(), Message{
		From:    "from@example.com",
		To:      "to@example.com",
		ReplyTo: "reply@example.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "pm-123", id)
	assert.Equal(t, "to@example.com", got["To"])
	assert.Equal(t, "reply@example.com", got["ReplyTo"])
}

func TestPostmarkSender_ProviderError(t *testing.T) {
	sender := newPostmarkTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	})

	_, err := sender.Send(context.Background(), Message{To: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postmark")
}

func TestPostmarkSender_MissingMessageID(t *testing.T) {
	sender := newPostmarkTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK"}`))
	})

	_, err := sender.Send(context.Background(), Message{To: "to@example.com"})
	assert.ErrorIs(t, err, ErrNoMessageID)
}
