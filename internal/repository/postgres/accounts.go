package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/repository"
)

var accountColumns = []string{
	"id",
	"email",
	"password_hash",
	"role",
	"is_verified",
	"full_name",
	"profile",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row and returns the assigned id.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (int64, error) {
	profile, err := marshalProfile(account.Profile)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()

	stmt, args, err := r.builder.Insert("accounts").
		Columns("email", "password_hash", "role", "is_verified", "full_name", "profile", "created_at", "updated_at").
		Values(account.Email, account.PasswordHash, account.Role, account.IsVerified, account.FullName, profile, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert account sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	return id, nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves an account by its normalised email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// RefreshCredentials overwrites the credentials and profile of an account
// whose owner restarted registration before verifying.
func (r *AccountRepository) RefreshCredentials(ctx context.Context, id int64, passwordHash string, role domain.Role, fullName string, profile map[string]any) error {
	encoded, err := marshalProfile(profile)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("role", role).
		Set("full_name", fullName).
		Set("profile", encoded).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build refresh credentials sql: %w", err)
	}

	return r.execAffectingOne(ctx, stmt, args, "refresh credentials")
}

// SetVerified flips the verification flag.
func (r *AccountRepository) SetVerified(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("is_verified", true).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set verified sql: %w", err)
	}

	return r.execAffectingOne(ctx, stmt, args, "set verified")
}

// UpdateRole persists a role change (allow-list promotion or administrative
// correction).
func (r *AccountRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("role", role).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	return r.execAffectingOne(ctx, stmt, args, "update role")
}

// UpdatePassword overwrites the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	return r.execAffectingOne(ctx, stmt, args, "update password")
}

// UpdateProfile persists the display name and the merged profile bag.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id int64, fullName string, profile map[string]any) error {
	encoded, err := marshalProfile(profile)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Update("accounts").
		Set("full_name", fullName).
		Set("profile", encoded).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	return r.execAffectingOne(ctx, stmt, args, "update profile")
}

// StudentProfile implements port.StudentDirectory over the account profile
// bag. The attributes are owned by the resource controllers; this layer only
// reads them.
func (r *AccountRepository) StudentProfile(ctx context.Context, accountID int64) (map[string]any, error) {
	stmt, args, err := r.builder.
		Select("profile").
		From("accounts").
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	var raw []byte
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	return unmarshalProfile(raw)
}

func (r *AccountRepository) execAffectingOne(ctx context.Context, stmt string, args []any, op string) error {
	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		profile []byte
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.IsVerified,
		&account.FullName,
		&profile,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	decoded, err := unmarshalProfile(profile)
	if err != nil {
		return nil, err
	}
	account.Profile = decoded

	return &account, nil
}

func marshalProfile(profile map[string]any) ([]byte, error) {
	if profile == nil {
		profile = map[string]any{}
	}
	encoded, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return encoded, nil
}

func unmarshalProfile(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var profile map[string]any
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if profile == nil {
		profile = map[string]any{}
	}
	return profile, nil
}
