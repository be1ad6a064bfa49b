// Command mock-postmark serves a Postmark-compatible /email endpoint for local
// development. Point POSTMARK_BASE_URL at one of its prefixes to pick a
// behavior.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var requestCount atomic.Int64

type emailRequest struct {
	From     string
	To       string
	ReplyTo  string
	Subject  string
	Tag      string
	HtmlBody string
}

type emailResponse struct {
	To          string `json:",omitempty"`
	SubmittedAt string `json:",omitempty"`
	MessageID   string `json:",omitempty"`
	ErrorCode   int
	Message     string
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	// Accepted: returns a message id
	http.HandleFunc("POST /ok/email", func(w http.ResponseWriter, r *http.Request) {
		req, ok := readEmail(w, r, logger)
		if !ok {
			return
		}
		respond(w, http.StatusOK, emailResponse{
			To:          req.To,
			SubmittedAt: time.Now().UTC().Format(time.RFC3339),
			MessageID:   uuid.NewString(),
			Message:     "OK",
		})
	})

	// Slow: delays 3 seconds before accepting
	http.HandleFunc("POST /slow/email", func(w http.ResponseWriter, r *http.Request) {
		req, ok := readEmail(w, r, logger)
		if !ok {
			return
		}
		time.Sleep(3 * time.Second)
		respond(w, http.StatusOK, emailResponse{To: req.To, MessageID: uuid.NewString(), Message: "OK"})
	})

	// Rejected: Postmark's invalid request error
	http.HandleFunc("POST /fail/email", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := readEmail(w, r, logger); !ok {
			return
		}
		respond(w, http.StatusUnprocessableEntity, emailResponse{ErrorCode: 300, Message: "Invalid email request"})
	})

	// Accepted without a message id
	http.HandleFunc("POST /noid/email", func(w http.ResponseWriter, r *http.Request) {
		req, ok := readEmail(w, r, logger)
		if !ok {
			return
		}
		respond(w, http.StatusOK, emailResponse{To: req.To, Message: "OK"})
	})

	// Stats endpoint — shows request count
	http.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]int64{"total_requests": requestCount.Load()})
	})

	logger.Info("mock postmark server starting", "port", port)
	logger.Info("routes",
		"ok", "POST /ok/email -> MessageID",
		"slow", "POST /slow/email -> MessageID after 3s",
		"fail", "POST /fail/email -> ErrorCode 300",
		"noid", "POST /noid/email -> no MessageID",
	)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func readEmail(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (emailRequest, bool) {
	count := requestCount.Add(1)

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, emailResponse{ErrorCode: 402, Message: "Invalid JSON"})
		return req, false
	}
	if r.Header.Get("X-Postmark-Server-Token") == "" {
		respond(w, http.StatusUnauthorized, emailResponse{ErrorCode: 10, Message: "No Account or Server API tokens were supplied"})
		return req, false
	}

	logger.Info("email received",
		"n", count,
		"path", r.URL.Path,
		"to", req.To,
		"subject", truncate(req.Subject, 60),
		"tag", req.Tag,
		"body_bytes", len(req.HtmlBody),
	)
	return req, true
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
