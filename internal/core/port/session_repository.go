package port

import (
	"context"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
)

// SessionRepository persists opaque session tokens.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// Touch updates last_accessed_at conditioned on the session still being
	// active and unexpired; it reports whether a row matched. ExpiresAt is
	// never modified.
	Touch(ctx context.Context, tokenHash string, at time.Time) (bool, error)
	// Deactivate flips active to false, keeping the row for audit.
	Deactivate(ctx context.Context, tokenHash string) (bool, error)
	DeactivateAllForAccount(ctx context.Context, accountID int64) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Session, error)
	// DeleteStale removes rows that are expired at now, or inactive with no
	// activity since the retention cutoff.
	DeleteStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}
