package configentry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vlc/internal/sentinel"
)

// PostgresStore reads config entries from PostgreSQL. The table mirrors the
// remote config collection: key, value_, type, date_.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed config entry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LatestByKey(ctx context.Context, key string) (*Entry, error) {
	query := `
		SELECT key, value_, type, date_
		FROM config
		WHERE key = $1
		ORDER BY date_ DESC
		LIMIT 1
	`
	var e Entry
	err := s.db.QueryRowContext(ctx, query, strings.TrimSpace(key)).
		Scan(&e.Key, &e.Value, &e.Type, &e.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("config entry not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("latest config entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListByKey(ctx context.Context, key string, limit int) ([]Entry, error) {
	query := `
		SELECT key, value_, type, date_
		FROM config
		WHERE key = $1
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(key), limit)
	if err != nil {
		return nil, fmt.Errorf("list config entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.Type, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan config entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config entries: %w", err)
	}
	return entries, nil
}
