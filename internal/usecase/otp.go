package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/security"
	"github.com/campushub/identity-service/internal/repository"
)

var (
	// ErrCodeInvalid indicates no outstanding code matches the submitted pair.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired indicates the code matched but its expiry has passed.
	ErrCodeExpired = errors.New("verification code expired")
)

// IssuedCode carries a freshly issued one-time code back to the caller so the
// transport layer can deliver it and, in development, echo it.
type IssuedCode struct {
	Code      string
	ExpiresAt time.Time
}

// OTPSettings fixes the shape of issued codes.
type OTPSettings struct {
	Length int
	Expiry time.Duration
}

func (s OTPSettings) normalized() OTPSettings {
	if s.Length <= 0 {
		s.Length = 6
	}
	if s.Expiry <= 0 {
		s.Expiry = 10 * time.Minute
	}
	return s
}

// issueCode generates, stores, and returns a numeric one-time code for the
// address. Codes are purpose-agnostic in storage; registration, login, and
// password reset all draw from the same table.
func issueCode(ctx context.Context, codes port.CodeRepository, email string, settings OTPSettings) (IssuedCode, error) {
	settings = settings.normalized()

	code, err := security.GenerateNumericCode(settings.Length)
	if err != nil {
		return IssuedCode{}, fmt.Errorf("generate code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(settings.Expiry)
	if _, err := codes.Create(ctx, email, code, expiresAt); err != nil {
		return IssuedCode{}, fmt.Errorf("store code: %w", err)
	}

	return IssuedCode{Code: code, ExpiresAt: expiresAt}, nil
}

// consumeCode atomically removes the (email, code) row and classifies the
// outcome. An expired row is gone after this call either way; cleanup of
// expired codes is lazy.
func consumeCode(ctx context.Context, codes port.CodeRepository, email, code string) (domain.OneTimeCode, error) {
	otc, err := codes.Consume(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.OneTimeCode{}, ErrCodeInvalid
		}
		return domain.OneTimeCode{}, fmt.Errorf("consume code: %w", err)
	}

	if otc.Expired(time.Now().UTC()) {
		return domain.OneTimeCode{}, ErrCodeExpired
	}

	return otc, nil
}

// publishEvent emits an auth event without letting bus trouble surface into
// the authentication flow.
func publishEvent(ctx context.Context, events port.EventPublisher, event domain.AuthEvent) {
	if events == nil {
		return
	}
	_ = events.PublishAuthEvent(ctx, event)
}

// ensureRole re-runs classification against the current allow-list snapshot
// and persists the role when it changed. Promotions granted through the
// allow-list take effect at the next successful verification or login.
func ensureRole(ctx context.Context, accounts port.AccountRepository, classifier *domain.RoleClassifier, account *domain.Account) error {
	role, ok := classifier.Classify(account.Email)
	if !ok || role == account.Role {
		return nil
	}

	if err := accounts.UpdateRole(ctx, account.ID, role); err != nil {
		return fmt.Errorf("persist role change: %w", err)
	}
	account.Role = role

	return nil
}
