package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agemilang/portfolio-api/internal/domain"
	"github.com/agemilang/portfolio-api/internal/validation"
)

type ContactMailer interface {
	SendContactFormEmail(ctx context.Context, req domain.ContactRequest) (string, error)
}

type ContactHandler struct {
	mailer ContactMailer
	logger *slog.Logger
}

func NewContactHandler(mailer ContactMailer, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{mailer: mailer, logger: logger}
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := validation.ValidateContactRequest(req)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondError(w, http.StatusBadRequest, strings.Join(vErr.Messages, ", "))
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.mailer.SendContactFormEmail(r.Context(), req)
	if err != nil {
		h.logger.Error("contact email failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	respondJSON(w, http.StatusOK, domain.ContactResponse{
		Success: true,
		Message: "Message sent successfully",
		ID:      id,
	})
}
