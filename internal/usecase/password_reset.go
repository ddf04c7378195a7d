package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/security"
	"github.com/campushub/identity-service/internal/repository"
)

// PasswordResetService implements the forgot/reset flow. Reset consumes a
// one-time code and overwrites the hash; it never issues a token, the caller
// logs in afterwards.
type PasswordResetService struct {
	accounts  port.AccountRepository
	codes     port.CodeRepository
	validator *security.PasswordValidator
	events    port.EventPublisher
	otp       OTPSettings
}

// NewPasswordResetService constructs the password reset service.
func NewPasswordResetService(
	accounts port.AccountRepository,
	codes port.CodeRepository,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	otp OTPSettings,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &PasswordResetService{
		accounts:  accounts,
		codes:     codes,
		validator: validator,
		events:    events,
		otp:       otp,
	}
}

// Forgot issues a reset code for an existing account. A missing account is
// reported to the caller.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) (IssuedCode, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return IssuedCode{}, fmt.Errorf("email is required")
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return IssuedCode{}, ErrAccountNotFound
		}
		return IssuedCode{}, fmt.Errorf("lookup account: %w", err)
	}

	return issueCode(ctx, s.codes, email, s.otp)
}

// Reset validates the replacement password, consumes the code, and overwrites
// the stored hash. The verified flag is untouched; codes are purpose-agnostic
// in storage but reset grants nothing beyond the new password.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	newPassword = strings.TrimSpace(newPassword)

	if email == "" || code == "" {
		return fmt.Errorf("email and code are required")
	}
	if newPassword == "" {
		return fmt.Errorf("new password is required")
	}
	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := consumeCode(ctx, s.codes, email, code); err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	publishEvent(ctx, s.events, domain.AuthEvent{
		EventID:    uuid.NewString(),
		Kind:       domain.EventPasswordReset,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}
