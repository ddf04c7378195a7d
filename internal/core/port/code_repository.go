package port

import (
	"context"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
)

// CodeRepository persists one-time verification codes.
type CodeRepository interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time) (domain.OneTimeCode, error)
	// Consume atomically deletes the row matching the literal (email, code)
	// pair and returns it. The caller decides valid vs expired from the
	// returned ExpiresAt; a missing row surfaces as repository.ErrNotFound.
	// Because deletion and lookup are one statement, two concurrent
	// verifications of the same code cannot both succeed.
	Consume(ctx context.Context, email, code string) (domain.OneTimeCode, error)
	// DeleteExpired removes codes whose expiry lies before the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
