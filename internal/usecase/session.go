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

// ErrSessionNotFound is returned for missing, revoked, and expired sessions
// alike; callers cannot distinguish the three.
var ErrSessionNotFound = errors.New("session not found")

const sessionTokenBytes = 32

// SessionService manages opaque store-backed sessions. Expiry is fixed at
// creation; activity slides last_accessed_at only.
type SessionService struct {
	sessions  port.SessionRepository
	accounts  port.AccountRepository
	events    port.EventPublisher
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewSessionService constructs the session manager.
func NewSessionService(sessions port.SessionRepository, accounts port.AccountRepository, events port.EventPublisher, ttl, retention time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &SessionService{
		sessions:  sessions,
		accounts:  accounts,
		events:    events,
		ttl:       ttl,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source for tests.
func (s *SessionService) WithClock(clock func() time.Time) *SessionService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// CreatedSession pairs the raw token (shown once, never stored) with the
// persisted session row.
type CreatedSession struct {
	Token   string
	Session domain.Session
}

// Create mints a session for an already-authenticated account. Only the
// SHA-256 of the token reaches the store.
func (s *SessionService) Create(ctx context.Context, accountID int64, deviceInfo string) (CreatedSession, error) {
	if accountID <= 0 {
		return CreatedSession{}, fmt.Errorf("account id is required")
	}

	token, err := security.GenerateSecureToken(sessionTokenBytes)
	if err != nil {
		return CreatedSession{}, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	session := domain.Session{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		TokenHash:      security.HashToken(token),
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.ttl),
		Active:         true,
	}
	if trimmed := strings.TrimSpace(deviceInfo); trimmed != "" {
		session.DeviceInfo = &trimmed
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return CreatedSession{}, fmt.Errorf("store session: %w", err)
	}

	return CreatedSession{Token: token, Session: session}, nil
}

// Verify resolves a raw token to a usable session without touching it.
func (s *SessionService) Verify(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Extend resolves the session under the same validity predicate as Verify and
// advances last_accessed_at. The expiry never moves; a session ends at its
// original deadline no matter how active it is.
func (s *SessionService) Extend(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	touched, err := s.sessions.Touch(ctx, session.TokenHash, now)
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	if !touched {
		// Revoked or expired between lookup and touch.
		return nil, ErrSessionNotFound
	}
	session.LastAccessedAt = now

	return session, nil
}

// Invalidate revokes the presented session. The row stays behind, inactive.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	revoked, err := s.sessions.Deactivate(ctx, session.TokenHash)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if !revoked {
		return ErrSessionNotFound
	}

	publishEvent(ctx, s.events, domain.AuthEvent{
		EventID:    uuid.NewString(),
		Kind:       domain.EventSessionRevoked,
		AccountID:  session.AccountID,
		OccurredAt: s.now(),
		Metadata:   map[string]any{"session_id": session.ID},
	})

	return nil
}

// InvalidateAll revokes every active session of the account and reports how
// many were affected.
func (s *SessionService) InvalidateAll(ctx context.Context, accountID int64) (int64, error) {
	count, err := s.sessions.DeactivateAllForAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions: %w", err)
	}

	if count > 0 {
		publishEvent(ctx, s.events, domain.AuthEvent{
			EventID:    uuid.NewString(),
			Kind:       domain.EventSessionRevoked,
			AccountID:  accountID,
			OccurredAt: s.now(),
			Metadata:   map[string]any{"revoked": count},
		})
	}

	return count, nil
}

// List returns the account's sessions, active and revoked, newest first.
func (s *SessionService) List(ctx context.Context, accountID int64) ([]domain.Session, error) {
	sessions, err := s.sessions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Account resolves the owning account of a verified session, giving session
// callers the current role rather than the one at session creation.
func (s *SessionService) Account(ctx context.Context, session *domain.Session) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session account: %w", err)
	}
	return account, nil
}

// Cleanup deletes rows past the retention horizon. Correctness never depends
// on it running; expired sessions are rejected by the validity predicate.
func (s *SessionService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteStale(ctx, s.now(), s.retention)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	return deleted, nil
}

func (s *SessionService) lookup(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if !session.Usable(s.now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}
