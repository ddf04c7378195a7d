package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles the PostgreSQL-backed repositories sharing one pool.
type Repositories struct {
	Accounts *AccountRepository
	Codes    *CodeRepository
	Sessions *SessionRepository
}

// NewRepositories wires all repositories over the supplied pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(pool),
		Codes:    NewCodeRepository(pool),
		Sessions: NewSessionRepository(pool),
	}
}
