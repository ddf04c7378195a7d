package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campushub/identity-service/internal/core/domain"
)

// ErrInvalidToken covers every bearer verification failure. Signature and
// expiry failures are deliberately indistinguishable to callers so that
// responses leak nothing about why a token was rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

const defaultBearerTTL = 4 * time.Hour

// BearerClaims embeds account identity and role in the signed token. The role
// is trusted until expiry without a store lookup, which is why the TTL is
// hours rather than days.
type BearerClaims struct {
	AccountID int64       `json:"uid"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 bearer tokens over a shared secret.
type TokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner constructs a signer. An empty secret is rejected.
func NewTokenSigner(secret, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = defaultBearerTTL
	}

	return &TokenSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the internal clock for deterministic tests.
func (t *TokenSigner) WithClock(clock func() time.Time) *TokenSigner {
	if clock != nil {
		t.now = clock
	}
	return t
}

// TTL returns the configured bearer lifetime.
func (t *TokenSigner) TTL() time.Duration {
	return t.ttl
}

// Issue signs a bearer token for the account and returns it with its expiry.
func (t *TokenSigner) Issue(accountID int64, email string, role domain.Role) (string, time.Time, error) {
	if accountID <= 0 {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := BearerClaims{
		AccountID: accountID,
		Email:     domain.NormalizeEmail(email),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and returns the embedded claims. Every
// failure collapses to ErrInvalidToken.
func (t *TokenSigner) Parse(token string) (*BearerClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &BearerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now))
	if err != nil || parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.AccountID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
