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
	// ErrAccountNotFound indicates no account exists for the email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService implements the two-step login flow: password check issuing a
// one-time code, then code verification issuing the bearer token.
type AuthService struct {
	accounts   port.AccountRepository
	codes      port.CodeRepository
	classifier *domain.RoleClassifier
	signer     *security.TokenSigner
	directory  port.StudentDirectory
	events     port.EventPublisher
	otp        OTPSettings
}

// NewAuthService constructs the login service.
func NewAuthService(
	accounts port.AccountRepository,
	codes port.CodeRepository,
	classifier *domain.RoleClassifier,
	signer *security.TokenSigner,
	directory port.StudentDirectory,
	events port.EventPublisher,
	otp OTPSettings,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		codes:      codes,
		classifier: classifier,
		signer:     signer,
		directory:  directory,
		events:     events,
		otp:        otp,
	}
}

// LoginChallenge reports the outcome of login step A. NeedsVerification is
// set when the password matched but the account was never verified; the
// issued code then doubles as the registration code.
type LoginChallenge struct {
	NeedsVerification bool
	Code              IssuedCode
}

// LoginResult is the outcome of login step B. StudentProfile is attached for
// student accounts only.
type LoginResult struct {
	Account        domain.Account
	Token          string
	ExpiresAt      time.Time
	StudentProfile map[string]any
}

// Login performs step A: verify the password and issue a one-time code. An
// unverified account with correct credentials is steered back through
// verification rather than rejected.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginChallenge, error) {
	email = domain.NormalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return LoginChallenge{}, fmt.Errorf("email and password are required")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginChallenge{}, ErrAccountNotFound
		}
		return LoginChallenge{}, fmt.Errorf("lookup account: %w", err)
	}

	match, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return LoginChallenge{}, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return LoginChallenge{}, ErrInvalidCredentials
	}

	issued, err := issueCode(ctx, s.codes, email, s.otp)
	if err != nil {
		return LoginChallenge{}, err
	}

	return LoginChallenge{NeedsVerification: !account.IsVerified, Code: issued}, nil
}

// LoginVerify performs step B: consume the code and sign a bearer token.
// The role is re-classified before signing, and student accounts get their
// directory attributes attached.
func (s *AuthService) LoginVerify(ctx context.Context, email, code string) (LoginResult, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	if email == "" || code == "" {
		return LoginResult{}, fmt.Errorf("email and code are required")
	}

	if _, err := consumeCode(ctx, s.codes, email, code); err != nil {
		return LoginResult{}, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrCodeInvalid
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	// A login code presented by an account that skipped verification still
	// completes it; the code proves mailbox ownership either way.
	if !account.IsVerified {
		if err := s.accounts.SetVerified(ctx, account.ID); err != nil {
			return LoginResult{}, fmt.Errorf("mark verified: %w", err)
		}
		account.IsVerified = true
	}

	if err := ensureRole(ctx, s.accounts, s.classifier, account); err != nil {
		return LoginResult{}, err
	}

	token, expiresAt, err := s.signer.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	result := LoginResult{Account: *account, Token: token, ExpiresAt: expiresAt}

	if account.Role == domain.RoleStudent && s.directory != nil {
		profile, err := s.directory.StudentProfile(ctx, account.ID)
		if err == nil {
			result.StudentProfile = profile
		}
	}

	publishEvent(ctx, s.events, domain.AuthEvent{
		EventID:    uuid.NewString(),
		Kind:       domain.EventLoginSucceeded,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		OccurredAt: time.Now().UTC(),
	})

	return result, nil
}
