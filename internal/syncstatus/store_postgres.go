package syncstatus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vlc/internal/sentinel"
)

// PostgresStore reads sync runs from the table the sync job writes to.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run: %w", sentinel.ErrInvalidInput)
	}
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	query := `
		INSERT INTO sync_runs (id, succeeded, failed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, id, run.Succeeded, run.Failed, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("save sync run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context) (*Run, error) {
	query := `
		SELECT id, succeeded, failed, started_at, finished_at
		FROM sync_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`
	var run Run
	err := s.db.QueryRowContext(ctx, query).Scan(&run.ID, &run.Succeeded, &run.Failed, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync run: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("latest sync run: %w", err)
	}
	return &run, nil
}
