package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/repository"
)

type mockAccountRepo struct {
	byEmail map[string]*domain.Account
	nextID  int64

	createErr         error
	createCalls       int
	refreshErr        error
	refreshCalls      int
	setVerifiedErr    error
	setVerifiedCalls  int
	updateRoleErr     error
	updateRoleCalls   int
	lastUpdatedRole   domain.Role
	updatePasswordErr error
	passwordCalls     int
	lastPasswordHash  string
	profileCalls      int
}

func newMockAccountRepo(accounts ...domain.Account) *mockAccountRepo {
	repo := &mockAccountRepo{byEmail: map[string]*domain.Account{}, nextID: 1}
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

func (m *mockAccountRepo) Create(_ context.Context, account domain.Account) (int64, error) {
	m.createCalls++
	if m.createErr != nil {
		return 0, m.createErr
	}
	account.ID = m.nextID
	m.nextID++
	m.byEmail[account.Email] = &account
	return account.ID, nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	for _, account := range m.byEmail {
		if account.ID == id {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	if account, ok := m.byEmail[email]; ok {
		copy := *account
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockAccountRepo) RefreshCredentials(_ context.Context, id int64, passwordHash string, role domain.Role, fullName string, profile map[string]any) error {
	m.refreshCalls++
	if m.refreshErr != nil {
		return m.refreshErr
	}
	for _, account := range m.byEmail {
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

func (m *mockAccountRepo) SetVerified(_ context.Context, id int64) error {
	m.setVerifiedCalls++
	if m.setVerifiedErr != nil {
		return m.setVerifiedErr
	}
	for _, account := range m.byEmail {
		if account.ID == id {
			account.IsVerified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockAccountRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	m.updateRoleCalls++
	m.lastUpdatedRole = role
	if m.updateRoleErr != nil {
		return m.updateRoleErr
	}
	for _, account := range m.byEmail {
		if account.ID == id {
			account.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockAccountRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	m.passwordCalls++
	m.lastPasswordHash = passwordHash
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	for _, account := range m.byEmail {
		if account.ID == id {
			account.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockAccountRepo) UpdateProfile(_ context.Context, id int64, fullName string, profile map[string]any) error {
	m.profileCalls++
	for _, account := range m.byEmail {
		if account.ID == id {
			account.FullName = fullName
			account.Profile = profile
			return nil
		}
	}
	return repository.ErrNotFound
}

type codeKey struct {
	email string
	code  string
}

type mockCodeRepo struct {
	stored map[codeKey]domain.OneTimeCode
	nextID int64

	createErr    error
	createCalls  int
	lastIssued   domain.OneTimeCode
	consumeCalls int
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{stored: map[codeKey]domain.OneTimeCode{}, nextID: 1}
}

func (m *mockCodeRepo) Create(_ context.Context, email, code string, expiresAt time.Time) (domain.OneTimeCode, error) {
	m.createCalls++
	if m.createErr != nil {
		return domain.OneTimeCode{}, m.createErr
	}
	otc := domain.OneTimeCode{
		ID:        m.nextID,
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	m.nextID++
	m.stored[codeKey{email, code}] = otc
	m.lastIssued = otc
	return otc, nil
}

func (m *mockCodeRepo) Consume(_ context.Context, email, code string) (domain.OneTimeCode, error) {
	m.consumeCalls++
	key := codeKey{email, code}
	otc, ok := m.stored[key]
	if !ok {
		return domain.OneTimeCode{}, repository.ErrNotFound
	}
	delete(m.stored, key)
	return otc, nil
}

func (m *mockCodeRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for key, otc := range m.stored {
		if otc.ExpiresAt.Before(cutoff) {
			delete(m.stored, key)
			deleted++
		}
	}
	return deleted, nil
}

// seed plants an already-stored code without counting as an issue call.
func (m *mockCodeRepo) seed(email, code string, expiresAt time.Time) {
	m.stored[codeKey{email, code}] = domain.OneTimeCode{
		ID:        m.nextID,
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	m.nextID++
}

type mockSessionRepo struct {
	byHash map[string]*domain.Session

	createErr   error
	createCalls int
	touchCalls  int
	lastTouch   time.Time
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{byHash: map[string]*domain.Session{}}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	copy := session
	m.byHash[session.TokenHash] = &copy
	return nil
}

func (m *mockSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	if session, ok := m.byHash[tokenHash]; ok {
		copy := *session
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockSessionRepo) Touch(_ context.Context, tokenHash string, at time.Time) (bool, error) {
	m.touchCalls++
	m.lastTouch = at
	session, ok := m.byHash[tokenHash]
	if !ok || !session.Active || !at.Before(session.ExpiresAt) {
		return false, nil
	}
	session.LastAccessedAt = at
	return true, nil
}

func (m *mockSessionRepo) Deactivate(_ context.Context, tokenHash string) (bool, error) {
	session, ok := m.byHash[tokenHash]
	if !ok || !session.Active {
		return false, nil
	}
	session.Active = false
	return true, nil
}

func (m *mockSessionRepo) DeactivateAllForAccount(_ context.Context, accountID int64) (int64, error) {
	var count int64
	for _, session := range m.byHash {
		if session.AccountID == accountID && session.Active {
			session.Active = false
			count++
		}
	}
	return count, nil
}

func (m *mockSessionRepo) ListByAccount(_ context.Context, accountID int64) ([]domain.Session, error) {
	var sessions []domain.Session
	for _, session := range m.byHash {
		if session.AccountID == accountID {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (m *mockSessionRepo) DeleteStale(_ context.Context, now time.Time, retention time.Duration) (int64, error) {
	horizon := now.Add(-retention)
	var deleted int64
	for hash, session := range m.byHash {
		if session.ExpiresAt.Before(horizon) || (!session.Active && session.LastAccessedAt.Before(horizon)) {
			delete(m.byHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

type mockEventPublisher struct {
	events []domain.AuthEvent
	err    error
}

func (m *mockEventPublisher) PublishAuthEvent(_ context.Context, event domain.AuthEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func (m *mockEventPublisher) Close() error { return nil }

func (m *mockEventPublisher) kinds() []string {
	kinds := make([]string, 0, len(m.events))
	for _, event := range m.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

type mockStudentDirectory struct {
	profile map[string]any
	err     error
	calls   int
	lastID  int64
}

func (m *mockStudentDirectory) StudentProfile(_ context.Context, accountID int64) (map[string]any, error) {
	m.calls++
	m.lastID = accountID
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

var errBoom = errors.New("boom")
