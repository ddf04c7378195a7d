package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/repository"
)

// ProfileService reads and updates the account-owned slice of the profile.
// The profile bag itself is shared with the resource controllers; updates
// merge rather than replace so foreign attributes survive.
type ProfileService struct {
	accounts port.AccountRepository
}

// NewProfileService constructs the profile service.
func NewProfileService(accounts port.AccountRepository) *ProfileService {
	return &ProfileService{accounts: accounts}
}

// ProfileUpdate carries the updatable fields. Nil pointers leave the current
// value in place.
type ProfileUpdate struct {
	FullName   *string
	Phone      *string
	RollNumber *string
}

// Get returns the account backing the caller's identity.
func (s *ProfileService) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

// Update merges the supplied fields into the account and its profile bag.
func (s *ProfileService) Update(ctx context.Context, accountID int64, update ProfileUpdate) (*domain.Account, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Profile == nil {
		account.Profile = map[string]any{}
	}

	if update.FullName != nil {
		account.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.Phone != nil {
		account.Profile["phone"] = strings.TrimSpace(*update.Phone)
	}
	if update.RollNumber != nil {
		account.Profile["roll_number"] = strings.TrimSpace(*update.RollNumber)
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, account.FullName, account.Profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return account, nil
}
