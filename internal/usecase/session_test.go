package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/infra/security"
)

func newTestSessionService(sessions *mockSessionRepo, accounts *mockAccountRepo, publisher *mockEventPublisher, ttl time.Duration) *SessionService {
	svc := NewSessionService(sessions, accounts, nil, ttl, 24*time.Hour)
	if publisher != nil {
		svc.events = publisher
	}
	return svc
}

func TestSessionCreate_StoresHashNotToken(t *testing.T) {
	sessions := newMockSessionRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSessionService(sessions, nil, nil, time.Hour).WithClock(func() time.Time { return base })

	created, err := svc.Create(context.Background(), 7, "ios app 3.2")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Token == "" {
		t.Fatalf("expected a raw token")
	}
	if _, ok := sessions.byHash[created.Token]; ok {
		t.Fatalf("raw token must not be used as the storage key")
	}
	stored, ok := sessions.byHash[security.HashToken(created.Token)]
	if !ok {
		t.Fatalf("expected the session stored under its token hash")
	}
	if stored.TokenHash != security.HashToken(created.Token) {
		t.Fatalf("stored hash does not match the issued token")
	}
	if !stored.ExpiresAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected expiry at creation+ttl, got %v", stored.ExpiresAt)
	}
	if stored.DeviceInfo == nil || *stored.DeviceInfo != "ios app 3.2" {
		t.Fatalf("expected device info recorded")
	}
}

func TestSessionVerify_DoesNotTouch(t *testing.T) {
	sessions := newMockSessionRepo()
	svc := newTestSessionService(sessions, nil, nil, time.Hour)

	created, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	session, err := svc.Verify(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if session.AccountID != 7 {
		t.Fatalf("expected account 7, got %d", session.AccountID)
	}
	if sessions.touchCalls != 0 {
		t.Fatalf("Verify must not advance last_accessed_at")
	}
}

func TestSessionExtend_SlidesActivityNotExpiry(t *testing.T) {
	sessions := newMockSessionRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc := newTestSessionService(sessions, nil, nil, time.Hour).WithClock(func() time.Time { return current })

	created, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	current = base.Add(30 * time.Minute)
	session, err := svc.Extend(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}
	if !session.LastAccessedAt.Equal(current) {
		t.Fatalf("expected last access at %v, got %v", current, session.LastAccessedAt)
	}
	if !session.ExpiresAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expiry must stay at the original deadline, got %v", session.ExpiresAt)
	}

	// Activity does not outrun the deadline.
	current = base.Add(61 * time.Minute)
	if _, err := svc.Extend(context.Background(), created.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound past expiry, got %v", err)
	}
}

func TestSessionLookup_UniformNotFound(t *testing.T) {
	sessions := newMockSessionRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc := newTestSessionService(sessions, nil, nil, time.Hour).WithClock(func() time.Time { return current })

	revoked, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Invalidate(context.Background(), revoked.Token); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	expired, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	current = base.Add(2 * time.Hour)

	cases := map[string]string{
		"missing": "no-such-token",
		"revoked": revoked.Token,
		"expired": expired.Token,
		"blank":   "  ",
	}
	for name, token := range cases {
		if _, err := svc.Verify(context.Background(), token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("%s: expected ErrSessionNotFound, got %v", name, err)
		}
	}
}

func TestSessionInvalidate_KeepsRowAndPublishes(t *testing.T) {
	sessions := newMockSessionRepo()
	publisher := &mockEventPublisher{}
	svc := newTestSessionService(sessions, nil, publisher, time.Hour)

	created, err := svc.Create(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Invalidate(context.Background(), created.Token); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	stored, ok := sessions.byHash[security.HashToken(created.Token)]
	if !ok {
		t.Fatalf("revocation must keep the row for the session list")
	}
	if stored.Active {
		t.Fatalf("expected the session inactive")
	}
	if got := publisher.kinds(); len(got) != 1 || got[0] != domain.EventSessionRevoked {
		t.Fatalf("expected revocation event, got %v", got)
	}

	// Second revocation of the same token reads as not found.
	if err := svc.Invalidate(context.Background(), created.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on repeat, got %v", err)
	}
}

func TestSessionInvalidateAll(t *testing.T) {
	sessions := newMockSessionRepo()
	publisher := &mockEventPublisher{}
	svc := newTestSessionService(sessions, nil, publisher, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), 7, ""); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), 8, ""); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	count, err := svc.InvalidateAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("InvalidateAll returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revoked, got %d", count)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected a single bulk revocation event, got %d", len(publisher.events))
	}

	// The other account's session is untouched.
	remaining, err := svc.List(context.Background(), 8)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(remaining) != 1 || !remaining[0].Active {
		t.Fatalf("expected account 8's session still active")
	}

	// Nothing left to revoke, no event.
	count, err = svc.InvalidateAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("InvalidateAll returned error: %v", err)
	}
	if count != 0 || len(publisher.events) != 1 {
		t.Fatalf("expected idempotent re-run, got count=%d events=%d", count, len(publisher.events))
	}
}

func TestSessionAccount_FreshLookup(t *testing.T) {
	account := verifiedAccount(t, "mentor@campus.edu", domain.RoleStaff)
	account.ID = 7
	accounts := newMockAccountRepo(account)
	sessions := newMockSessionRepo()
	svc := newTestSessionService(sessions, accounts, nil, time.Hour)

	created, err := svc.Create(context.Background(), account.ID, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	session, err := svc.Verify(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	resolved, err := svc.Account(context.Background(), session)
	if err != nil {
		t.Fatalf("Account returned error: %v", err)
	}
	if resolved.Email != "mentor@campus.edu" {
		t.Fatalf("unexpected account %q", resolved.Email)
	}

	// A deleted owner surfaces as a dead session, not as a storage error.
	delete(accounts.byEmail, account.Email)
	if _, err := svc.Account(context.Background(), session); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for orphaned session, got %v", err)
	}
}

func TestSessionCleanup_RespectsRetention(t *testing.T) {
	sessions := newMockSessionRepo()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc := newTestSessionService(sessions, nil, nil, time.Hour).WithClock(func() time.Time { return current })

	if _, err := svc.Create(context.Background(), 7, ""); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Expired but still inside the retention window: kept for the audit list.
	current = base.Add(2 * time.Hour)
	deleted, err := svc.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected nothing deleted inside retention, got %d", deleted)
	}

	// Past the horizon it goes.
	current = base.Add(26 * time.Hour)
	deleted, err = svc.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one stale session deleted, got %d", deleted)
	}
	if len(sessions.byHash) != 0 {
		t.Fatalf("expected the store empty")
	}
}
