package security

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("GenerateNumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	if strings.Trim(code, "0123456789") != "" {
		t.Fatalf("expected digits only, got %q", code)
	}

	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatalf("expected rejection of a non-positive length")
	}
}

func TestGenerateNumericCode_CoversAllDigits(t *testing.T) {
	code, err := GenerateNumericCode(4096)
	if err != nil {
		t.Fatalf("GenerateNumericCode returned error: %v", err)
	}
	if len(code) != 4096 {
		t.Fatalf("expected 4096 digits, got %d", len(code))
	}
	for _, d := range "0123456789" {
		if !strings.ContainsRune(code, d) {
			t.Fatalf("digit %c never drawn across %d samples", d, len(code))
		}
	}
}

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	if first == second {
		t.Fatalf("two tokens must differ")
	}
	if strings.ContainsAny(first, "+/=") {
		t.Fatalf("expected URL-safe encoding, got %q", first)
	}

	if _, err := GenerateSecureToken(-1); err == nil {
		t.Fatalf("expected rejection of a non-positive length")
	}
}

func TestHashToken(t *testing.T) {
	hash := HashToken("opaque-token")
	if len(hash) != 64 {
		t.Fatalf("expected a hex SHA-256 digest, got %q", hash)
	}
	if hash != HashToken("opaque-token") {
		t.Fatalf("hashing must be deterministic")
	}
	if hash == HashToken("other-token") {
		t.Fatalf("different tokens must hash differently")
	}
}

func TestPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	cases := []struct {
		password string
		code     string
	}{
		{"Valid1!pass", ""},
		{"short1!", "min_length"},
		{"nodigits!here", "digit"},
		{"nosymbols1here", "symbol"},
	}

	for _, tc := range cases {
		err := validator.Validate(tc.password)
		if tc.code == "" {
			if err != nil {
				t.Fatalf("Validate(%q) returned error: %v", tc.password, err)
			}
			continue
		}

		var violation *PasswordValidationError
		if !errors.As(err, &violation) {
			t.Fatalf("Validate(%q): expected a policy violation, got %v", tc.password, err)
		}
		if violation.Code != tc.code {
			t.Fatalf("Validate(%q): expected code %q, got %q", tc.password, tc.code, violation.Code)
		}
	}
}
