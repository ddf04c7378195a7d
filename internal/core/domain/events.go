package domain

import "time"

// Auth event kinds published to the event bus.
const (
	EventAccountRegistered = "account.registered"
	EventAccountVerified   = "account.verified"
	EventLoginSucceeded    = "login.succeeded"
	EventPasswordReset     = "password.reset"
	EventSessionRevoked    = "session.revoked"
)

// AuthEvent describes a security-relevant state change on an account.
type AuthEvent struct {
	EventID    string         `json:"event_id"`
	Kind       string         `json:"kind"`
	AccountID  int64          `json:"account_id,omitempty"`
	Email      string         `json:"email,omitempty"`
	Role       Role           `json:"role,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
