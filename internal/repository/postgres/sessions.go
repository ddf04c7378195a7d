package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/repository"
)

var sessionColumns = []string{
	"id",
	"account_id",
	"token_hash",
	"device_info",
	"created_at",
	"last_accessed_at",
	"expires_at",
	"active",
}

// SessionRepository implements port.SessionRepository using PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository wires a PostgreSQL-backed session repository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return newSessionRepository(pool)
}

func newSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists a new session row.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.AccountID,
			session.TokenHash,
			session.DeviceInfo,
			session.CreatedAt,
			session.LastAccessedAt,
			session.ExpiresAt,
			session.Active,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByTokenHash looks up a session by the hash of its opaque token.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	return r.scanSession(r.exec.QueryRow(ctx, stmt, args...))
}

// Touch advances last_accessed_at for a still-usable session. The expiry
// column is deliberately untouched; sessions end at their original deadline
// no matter how recently they were used. Returns false when no active,
// unexpired row matched.
func (r *SessionRepository) Touch(ctx context.Context, tokenHash string, at time.Time) (bool, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("last_accessed_at", at).
		Where(squirrel.Eq{"token_hash": tokenHash, "active": true}).
		Where(squirrel.Gt{"expires_at": at}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build touch session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("touch session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Deactivate marks one session inactive. The row is kept for audit.
func (r *SessionRepository) Deactivate(ctx context.Context, tokenHash string) (bool, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("active", false).
		Where(squirrel.Eq{"token_hash": tokenHash, "active": true}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build deactivate session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeactivateAllForAccount revokes every active session of one account and
// reports how many were flipped.
func (r *SessionRepository) DeactivateAllForAccount(ctx context.Context, accountID int64) (int64, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("active", false).
		Where(squirrel.Eq{"account_id": accountID, "active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build deactivate account sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate account sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListByAccount returns the account's sessions, newest first.
func (r *SessionRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := r.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// DeleteStale purges rows that expired longer than retention ago, along with
// inactive rows past the same horizon.
func (r *SessionRepository) DeleteStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	horizon := now.Add(-retention)

	stmt, args, err := r.builder.Delete("sessions").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": horizon},
			squirrel.And{
				squirrel.Eq{"active": false},
				squirrel.Lt{"last_accessed_at": horizon},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete stale sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (*domain.Session, error) {
	var session domain.Session

	if err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.TokenHash,
		&session.DeviceInfo,
		&session.CreatedAt,
		&session.LastAccessedAt,
		&session.ExpiresAt,
		&session.Active,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &session, nil
}

func (r *SessionRepository) scanSessionRow(rows pgx.Rows) (*domain.Session, error) {
	return r.scanSession(rows)
}
