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

var (
	// ErrAlreadyRegistered indicates a verified account exists for the email.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrUnclassifiableEmail indicates the address maps to no role.
	ErrUnclassifiableEmail = errors.New("email does not belong to the institution")
	// ErrPasswordPolicyViolation indicates the password fails the rule set.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// RegistrationService handles account onboarding and OTP verification.
type RegistrationService struct {
	accounts   port.AccountRepository
	codes      port.CodeRepository
	classifier *domain.RoleClassifier
	validator  *security.PasswordValidator
	signer     *security.TokenSigner
	events     port.EventPublisher
	otp        OTPSettings
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	codes port.CodeRepository,
	classifier *domain.RoleClassifier,
	validator *security.PasswordValidator,
	signer *security.TokenSigner,
	events port.EventPublisher,
	otp OTPSettings,
) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &RegistrationService{
		accounts:   accounts,
		codes:      codes,
		classifier: classifier,
		validator:  validator,
		signer:     signer,
		events:     events,
		otp:        otp,
	}
}

// VerifiedAccount is the outcome of a successful OTP verification: the
// account in its post-verification state plus a freshly signed bearer token.
type VerifiedAccount struct {
	Account   domain.Account
	Token     string
	ExpiresAt time.Time
}

// Register creates (or refreshes) an unverified account and issues a
// verification code. A verified account under the same address is a conflict;
// an unverified one has its credentials overwritten so the most recent
// registration attempt wins.
func (s *RegistrationService) Register(ctx context.Context, email, password, fullName string, profile map[string]any) (domain.Account, IssuedCode, error) {
	email = domain.NormalizeEmail(email)
	password = strings.TrimSpace(password)
	fullName = strings.TrimSpace(fullName)

	if email == "" {
		return domain.Account{}, IssuedCode{}, fmt.Errorf("email is required")
	}
	if password == "" {
		return domain.Account{}, IssuedCode{}, fmt.Errorf("password is required")
	}
	if err := s.validator.Validate(password); err != nil {
		return domain.Account{}, IssuedCode{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	role, ok := s.classifier.Classify(email)
	if !ok {
		return domain.Account{}, IssuedCode{}, ErrUnclassifiableEmail
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.Account{}, IssuedCode{}, fmt.Errorf("hash password: %w", err)
	}

	if profile == nil {
		profile = map[string]any{}
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return domain.Account{}, IssuedCode{}, ErrAlreadyRegistered
	case err == nil:
		if err := s.accounts.RefreshCredentials(ctx, existing.ID, passwordHash, role, fullName, profile); err != nil {
			return domain.Account{}, IssuedCode{}, fmt.Errorf("refresh credentials: %w", err)
		}
		existing.PasswordHash = passwordHash
		existing.Role = role
		existing.FullName = fullName
		existing.Profile = profile
	case errors.Is(err, repository.ErrNotFound):
		account := domain.Account{
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
			FullName:     fullName,
			Profile:      profile,
		}
		id, err := s.accounts.Create(ctx, account)
		if err != nil {
			return domain.Account{}, IssuedCode{}, fmt.Errorf("create account: %w", err)
		}
		account.ID = id
		existing = &account
	default:
		return domain.Account{}, IssuedCode{}, fmt.Errorf("lookup account: %w", err)
	}

	issued, err := issueCode(ctx, s.codes, email, s.otp)
	if err != nil {
		return domain.Account{}, IssuedCode{}, err
	}

	publishEvent(ctx, s.events, domain.AuthEvent{
		EventID:    uuid.NewString(),
		Kind:       domain.EventAccountRegistered,
		AccountID:  existing.ID,
		Email:      email,
		Role:       existing.Role,
		OccurredAt: time.Now().UTC(),
	})

	return *existing, issued, nil
}

// Verify consumes the (email, code) pair, marks the account verified, and
// signs a bearer token. Role classification is re-applied against the current
// allow-list before signing.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (VerifiedAccount, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	if email == "" || code == "" {
		return VerifiedAccount{}, fmt.Errorf("email and code are required")
	}

	if _, err := consumeCode(ctx, s.codes, email, code); err != nil {
		return VerifiedAccount{}, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifiedAccount{}, ErrCodeInvalid
		}
		return VerifiedAccount{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsVerified {
		if err := s.accounts.SetVerified(ctx, account.ID); err != nil {
			return VerifiedAccount{}, fmt.Errorf("mark verified: %w", err)
		}
		account.IsVerified = true
	}

	if err := ensureRole(ctx, s.accounts, s.classifier, account); err != nil {
		return VerifiedAccount{}, err
	}

	token, expiresAt, err := s.signer.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		return VerifiedAccount{}, fmt.Errorf("issue token: %w", err)
	}

	publishEvent(ctx, s.events, domain.AuthEvent{
		EventID:    uuid.NewString(),
		Kind:       domain.EventAccountVerified,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		OccurredAt: time.Now().UTC(),
	})

	return VerifiedAccount{Account: *account, Token: token, ExpiresAt: expiresAt}, nil
}
