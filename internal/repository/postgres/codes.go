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

// CodeRepository implements port.CodeRepository using PostgreSQL.
type CodeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCodeRepository wires a PostgreSQL-backed one-time code repository.
func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return newCodeRepository(pool)
}

func newCodeRepository(exec pgExecutor) *CodeRepository {
	return &CodeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create stores a fresh code for the address. Outstanding codes for the same
// address are left in place; verification matches the literal (email, code)
// pair, so older codes simply expire.
func (r *CodeRepository) Create(ctx context.Context, email, code string, expiresAt time.Time) (domain.OneTimeCode, error) {
	now := time.Now().UTC()

	stmt, args, err := r.builder.Insert("one_time_codes").
		Columns("email", "code", "created_at", "expires_at").
		Values(email, code, now, expiresAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("build insert code sql: %w", err)
	}

	otc := domain.OneTimeCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&otc.ID); err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("insert code: %w", err)
	}

	return otc, nil
}

// Consume atomically deletes the matching code and returns it. A single
// DELETE ... RETURNING keeps concurrent submissions of the same code from
// both succeeding. Callers decide expiry from the returned row; an expired
// row is already gone by the time they check.
func (r *CodeRepository) Consume(ctx context.Context, email, code string) (domain.OneTimeCode, error) {
	stmt, args, err := r.builder.Delete("one_time_codes").
		Where(squirrel.Eq{"email": email, "code": code}).
		Suffix("RETURNING id, created_at, expires_at").
		ToSql()
	if err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("build consume code sql: %w", err)
	}

	otc := domain.OneTimeCode{Email: email, Code: code}
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&otc.ID, &otc.CreatedAt, &otc.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OneTimeCode{}, repository.ErrNotFound
		}
		return domain.OneTimeCode{}, fmt.Errorf("consume code: %w", err)
	}

	return otc, nil
}

// DeleteExpired removes codes whose expiry is before the cutoff and reports
// how many were dropped.
func (r *CodeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	stmt, args, err := r.builder.Delete("one_time_codes").
		Where(squirrel.Lt{"expires_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired codes sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}

	return tag.RowsAffected(), nil
}
