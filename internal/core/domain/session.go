package domain

import "time"

// Session is a long-lived opaque credential backed by the store. The raw
// token never persists; TokenHash is its SHA-256 lookup key. ExpiresAt is
// fixed at creation and never moves; only LastAccessedAt slides on activity,
// so the absolute lifetime stays bounded under continuous use.
type Session struct {
	ID             string
	AccountID      int64
	TokenHash      string
	DeviceInfo     *string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ExpiresAt      time.Time
	Active         bool
}

// Usable reports whether the session authenticates requests at the supplied
// moment: it must be active and not yet expired.
func (s Session) Usable(at time.Time) bool {
	return s.Active && at.Before(s.ExpiresAt)
}
