package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vlc/internal/auth/models"
	"vlc/internal/sentinel"
)

// PostgresStore persists account records in PostgreSQL.
// This store is pure I/O; lockout decisions belong in the lockout service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, acc *models.Account) error {
	if acc == nil {
		return fmt.Errorf("account is required")
	}
	roles, err := json.Marshal(acc.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	query := `
		INSERT INTO accounts (email, username, attempt, disabled, roles, identity_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			username = EXCLUDED.username,
			attempt = EXCLUDED.attempt,
			disabled = EXCLUDED.disabled,
			roles = EXCLUDED.roles,
			identity_id = EXCLUDED.identity_id,
			password_hash = EXCLUDED.password_hash
	`
	_, err = s.db.ExecContext(ctx, query,
		models.NormalizeEmail(acc.Email),
		acc.Username,
		acc.Attempt,
		acc.Disabled,
		roles,
		acc.IdentityID,
		acc.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT email, username, attempt, disabled, roles, identity_id, password_hash
		FROM accounts
		WHERE email = $1
	`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return acc, nil
}

func (s *PostgresStore) FindByIdentityID(ctx context.Context, identityID string) (*models.Account, error) {
	query := `
		SELECT email, username, attempt, disabled, roles, identity_id, password_hash
		FROM accounts
		WHERE identity_id = $1
	`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by identity id: %w", err)
	}
	return acc, nil
}

// IncrementAttempt performs the bump server-side in a single statement, so
// concurrent failed sign-ins from multiple devices never under-count.
func (s *PostgresStore) IncrementAttempt(ctx context.Context, email string) (int, error) {
	query := `
		UPDATE accounts
		SET attempt = attempt + 1
		WHERE email = $1
		RETURNING attempt
	`
	var attempt int
	err := s.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)).Scan(&attempt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("increment attempt: %w", err)
	}
	return attempt, nil
}

func (s *PostgresStore) ResetAttempt(ctx context.Context, identityID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET attempt = 0 WHERE identity_id = $1`, identityID)
	if err != nil {
		return fmt.Errorf("reset attempt: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) SetDisabled(ctx context.Context, email string, disabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET disabled = $2 WHERE email = $1`,
		models.NormalizeEmail(email), disabled)
	if err != nil {
		return fmt.Errorf("set disabled: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		acc   models.Account
		roles []byte
	)
	err := row.Scan(&acc.Email, &acc.Username, &acc.Attempt, &acc.Disabled, &roles, &acc.IdentityID, &acc.PasswordHash)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &acc.Roles); err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
	}
	return &acc, nil
}
