package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ecoregistry/internal/registry/models"
	"ecoregistry/pkg/platform/sentinel"
	txcontext "ecoregistry/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    position   INTEGER NOT NULL,
    record     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists each record as a JSONB row. The position column
// preserves dataset order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the projects table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate projects table: %w", err)
	}
	return nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, if any.
func (s *PostgresStore) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Load(ctx context.Context) ([]models.Record, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT record FROM projects ORDER BY position, project_id`)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		var r models.Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Get(ctx context.Context, projectID string) (*models.Record, error) {
	var raw []byte
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT record FROM projects WHERE project_id = $1`, projectID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	var r models.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", projectID, err)
	}
	return &r, nil
}

// Save upserts records in one transaction. Rows for projects absent from
// records are left alone: a refresh saves a snapshot loaded minutes earlier,
// and projects added by other writers since then must survive it.
func (s *PostgresStore) Save(ctx context.Context, records []models.Record) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		for i, r := range records {
			if err := s.upsert(ctx, i, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) upsert(ctx context.Context, position int, r models.Record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode project %s: %w", r.ProjectID, err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
INSERT INTO projects (project_id, position, record, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (project_id) DO UPDATE
SET position = EXCLUDED.position,
    record = EXCLUDED.record,
    updated_at = CASE WHEN projects.record = EXCLUDED.record THEN projects.updated_at ELSE now() END`,
		r.ProjectID, position, raw)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("save project %s: %w", r.ProjectID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save project %s: %w", r.ProjectID, err)
	}
	return nil
}
