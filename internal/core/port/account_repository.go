package port

import (
	"context"

	"github.com/campushub/identity-service/internal/core/domain"
)

// AccountRepository is the durable credential store.
type AccountRepository interface {
	// Create inserts a new account and returns the assigned id.
	Create(ctx context.Context, account domain.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// GetByEmail looks up an account by its normalised email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// RefreshCredentials overwrites password hash, role, display name, and
	// profile of an unverified account restarting registration.
	RefreshCredentials(ctx context.Context, id int64, passwordHash string, role domain.Role, fullName string, profile map[string]any) error
	SetVerified(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// UpdateProfile persists the display name and the merged profile bag.
	UpdateProfile(ctx context.Context, id int64, fullName string, profile map[string]any) error
}
