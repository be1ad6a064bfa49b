package domain

import (
	"time"
)

// Subscriber is a single newsletter recipient. A record with Confirmed set to
// false is pending; once confirmed it never reverts.
type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Confirmed    bool      `json:"confirmed"`
	ConfirmToken string    `json:"-"`
}

type SubscribeRequest struct {
	Email    string `json:"email"`
	Honeypot string `json:"honeypot,omitempty"`
}

type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConfirmRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type UnsubscribeRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type SendDigestRequest struct {
	Secret    string   `json:"secret"`
	PostSlugs []string `json:"postSlugs"`
}

type SendDigestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Sent    int    `json:"sent"`
}

// DigestResult reports how many digest emails were accepted by the provider.
type DigestResult struct {
	Sent int `json:"sent"`
}
