package handlers

import (
	"context"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/repository"
)

type fakeAccounts struct {
	byEmail map[string]*domain.Account
	nextID  int64
}

func newFakeAccounts(accounts ...domain.Account) *fakeAccounts {
	repo := &fakeAccounts{byEmail: map[string]*domain.Account{}, nextID: 1}
	for _, account := range accounts {
		copy := account
		if copy.ID == 0 {
			copy.ID = repo.nextID
		}
		if copy.ID >= repo.nextID {
			repo.nextID = copy.ID + 1
		}
		repo.byEmail[copy.Email] = &copy
	}
	return repo
}

func (f *fakeAccounts) Create(_ context.Context, account domain.Account) (int64, error) {
	account.ID = f.nextID
	f.nextID++
	f.byEmail[account.Email] = &account
	return account.ID, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	if account, ok := f.byEmail[email]; ok {
		copy := *account
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccounts) RefreshCredentials(_ context.Context, id int64, passwordHash string, role domain.Role, fullName string, profile map[string]any) error {
	for _, account := range f.byEmail {
		if account.ID == id {
			account.PasswordHash = passwordHash
			account.Role = role
			account.FullName = fullName
			account.Profile = profile
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccounts) SetVerified(_ context.Context, id int64) error {
	for _, account := range f.byEmail {
		if account.ID == id {
			account.IsVerified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccounts) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	for _, account := range f.byEmail {
		if account.ID == id {
			account.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	for _, account := range f.byEmail {
		if account.ID == id {
			account.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, id int64, fullName string, profile map[string]any) error {
	for _, account := range f.byEmail {
		if account.ID == id {
			account.FullName = fullName
			account.Profile = profile
			return nil
		}
	}
	return repository.ErrNotFound
}

type codeKey struct{ email, code string }

type fakeCodes struct {
	stored map[codeKey]domain.OneTimeCode
	nextID int64
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{stored: map[codeKey]domain.OneTimeCode{}, nextID: 1}
}

func (f *fakeCodes) Create(_ context.Context, email, code string, expiresAt time.Time) (domain.OneTimeCode, error) {
	otc := domain.OneTimeCode{
		ID:        f.nextID,
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	f.nextID++
	f.stored[codeKey{email, code}] = otc
	return otc, nil
}

func (f *fakeCodes) Consume(_ context.Context, email, code string) (domain.OneTimeCode, error) {
	key := codeKey{email, code}
	otc, ok := f.stored[key]
	if !ok {
		return domain.OneTimeCode{}, repository.ErrNotFound
	}
	delete(f.stored, key)
	return otc, nil
}

func (f *fakeCodes) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for key, otc := range f.stored {
		if otc.ExpiresAt.Before(cutoff) {
			delete(f.stored, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSessions struct {
	byHash map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byHash: map[string]*domain.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, session domain.Session) error {
	copy := session
	f.byHash[session.TokenHash] = &copy
	return nil
}

func (f *fakeSessions) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	if session, ok := f.byHash[tokenHash]; ok {
		copy := *session
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessions) Touch(_ context.Context, tokenHash string, at time.Time) (bool, error) {
	session, ok := f.byHash[tokenHash]
	if !ok || !session.Active || !at.Before(session.ExpiresAt) {
		return false, nil
	}
	session.LastAccessedAt = at
	return true, nil
}

func (f *fakeSessions) Deactivate(_ context.Context, tokenHash string) (bool, error) {
	session, ok := f.byHash[tokenHash]
	if !ok || !session.Active {
		return false, nil
	}
	session.Active = false
	return true, nil
}

func (f *fakeSessions) DeactivateAllForAccount(_ context.Context, accountID int64) (int64, error) {
	var count int64
	for _, session := range f.byHash {
		if session.AccountID == accountID && session.Active {
			session.Active = false
			count++
		}
	}
	return count, nil
}

func (f *fakeSessions) ListByAccount(_ context.Context, accountID int64) ([]domain.Session, error) {
	var sessions []domain.Session
	for _, session := range f.byHash {
		if session.AccountID == accountID {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (f *fakeSessions) DeleteStale(_ context.Context, now time.Time, retention time.Duration) (int64, error) {
	return 0, nil
}

type captureDispatcher struct {
	sent []CodeNotification
	err  error
}

func (d *captureDispatcher) SendCode(_ context.Context, payload CodeNotification) error {
	d.sent = append(d.sent, payload)
	return d.err
}
