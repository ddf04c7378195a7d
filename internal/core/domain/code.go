package domain

import "time"

// OneTimeCode is a short-lived numeric verification code tied to an email
// address. Multiple unexpired codes may be outstanding for the same address;
// verification matches the literal (email, code) pair, never "latest".
type OneTimeCode struct {
	ID        int64
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at the supplied moment.
func (c OneTimeCode) Expired(at time.Time) bool {
	return !at.Before(c.ExpiresAt)
}
