// Package validation checks and normalizes inbound newsletter and contact
// requests before any state is touched.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agemilang/portfolio-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type subscribeInput struct {
	Email    string `validate:"required,max=255,email"`
	Honeypot string `validate:"max=0"`
}

type tokenInput struct {
	Email string `validate:"required,email"`
	Token string `validate:"required"`
}

type contactInput struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,max=255,email"`
	Message string `validate:"required,max=5000"`
}

// messages maps field+tag pairs to the human-readable rule text.
var messages = map[string]string{
	"Email.required":   "Email is required",
	"Email.email":      "Invalid email format",
	"Email.max":        "Email must be less than 255 characters",
	"Honeypot.max":     "Bot detected",
	"Token.required":   "Token is required",
	"Name.required":    "Name is required",
	"Name.max":         "Name must be less than 100 characters",
	"Message.required": "Message is required",
	"Message.max":      "Message must be less than 5000 characters",
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSubscribeRequest returns the request with a normalized email, or a
// *domain.ValidationError. A non-empty honeypot always fails.
func ValidateSubscribeRequest(req domain.SubscribeRequest) (domain.SubscribeRequest, error) {
	in := subscribeInput{
		Email:    NormalizeEmail(req.Email),
		Honeypot: req.Honeypot,
	}
	if err := check(in); err != nil {
		return domain.SubscribeRequest{}, err
	}
	return domain.SubscribeRequest{Email: in.Email}, nil
}

func ValidateConfirmRequest(email, token string) (domain.ConfirmRequest, error) {
	in, err := validateToken(email, token)
	if err != nil {
		return domain.ConfirmRequest{}, err
	}
	return domain.ConfirmRequest{Email: in.Email, Token: in.Token}, nil
}

func ValidateUnsubscribeRequest(email, token string) (domain.UnsubscribeRequest, error) {
	in, err := validateToken(email, token)
	if err != nil {
		return domain.UnsubscribeRequest{}, err
	}
	return domain.UnsubscribeRequest{Email: in.Email, Token: in.Token}, nil
}

func ValidateContactRequest(req domain.ContactRequest) (domain.ContactRequest, error) {
	in := contactInput{
		Name:    strings.TrimSpace(req.Name),
		Email:   NormalizeEmail(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if err := check(in); err != nil {
		return domain.ContactRequest{}, err
	}
	return domain.ContactRequest{Name: in.Name, Email: in.Email, Message: in.Message}, nil
}

// validateToken leaves the token as given; a padded token is a mismatch, not
// a missing one.
func validateToken(email, token string) (tokenInput, error) {
	in := tokenInput{
		Email: NormalizeEmail(email),
		Token: token,
	}
	return in, check(in)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError(err.Error())
	}

	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out = append(out, msg)
	}
	return domain.NewValidationError(out...)
}
