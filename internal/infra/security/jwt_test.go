package security

import (
	"errors"
	"testing"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
)

func testTokenSigner(t *testing.T) *TokenSigner {
	t.Helper()
	signer, err := NewTokenSigner("unit-test-signing-secret", "identity-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	return signer
}

func TestTokenSigner_IssueAndParse(t *testing.T) {
	signer := testTokenSigner(t)

	token, expiresAt, err := signer.Issue(42, "Mentor@Campus.EDU", domain.RoleStaff)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > time.Hour {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.AccountID != 42 || claims.Role != domain.RoleStaff {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Email != "mentor@campus.edu" {
		t.Fatalf("expected the email normalised, got %q", claims.Email)
	}
}

func TestTokenSigner_RejectsEmptySecret(t *testing.T) {
	if _, err := NewTokenSigner("   ", "identity-test", time.Hour); err == nil {
		t.Fatalf("expected rejection of a blank secret")
	}
}

func TestTokenSigner_FailuresAreUniform(t *testing.T) {
	signer := testTokenSigner(t)

	otherSecret, err := NewTokenSigner("some-other-secret", "identity-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	forged, _, err := otherSecret.Issue(42, "mentor@campus.edu", domain.RoleStaff)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	otherIssuer, err := NewTokenSigner("unit-test-signing-secret", "someone-else", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	wrongIssuer, _, err := otherIssuer.Issue(42, "mentor@campus.edu", domain.RoleStaff)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	past := time.Now().UTC().Add(-2 * time.Hour)
	expired, _, err := testTokenSigner(t).WithClock(func() time.Time { return past }).Issue(42, "mentor@campus.edu", domain.RoleStaff)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"forged":       forged,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
	} {
		if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestTokenSigner_ExpiryHonoursClock(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	signer := testTokenSigner(t).WithClock(func() time.Time { return current })

	token, expiresAt, err := signer.Issue(42, "mentor@campus.edu", domain.RoleStaff)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected expiry at issue+ttl, got %v", expiresAt)
	}

	current = base.Add(59 * time.Minute)
	if _, err := signer.Parse(token); err != nil {
		t.Fatalf("expected the token valid before expiry, got %v", err)
	}

	current = base.Add(61 * time.Minute)
	if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken past expiry, got %v", err)
	}
}

func TestTokenSigner_IssueRequiresAccountID(t *testing.T) {
	signer := testTokenSigner(t)
	if _, _, err := signer.Issue(0, "mentor@campus.edu", domain.RoleStaff); err == nil {
		t.Fatalf("expected rejection of a zero account id")
	}
}
