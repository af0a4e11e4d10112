// Package persistence stores generation jobs in SQLite so the queue can
// recover its state after a restart.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aroyer/genmedia/internal/jobs"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS generation_jobs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL DEFAULT '',
	dedupe_key TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '{}',
	status     TEXT NOT NULL,
	result_ref TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.GenerationJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, dedupe_key, payload, status, result_ref, error, created_at, updated_at
		FROM generation_jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	defer rows.Close()

	loaded := make([]*jobs.GenerationJob, 0)
	for rows.Next() {
		var (
			job                  jobs.GenerationJob
			payload              string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&job.ID, &job.Source, &job.DedupeKey, &payload, &job.Status,
			&job.ResultRef, &job.Error, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &job.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of job %s: %w", job.ID, err)
		}
		job.CreatedAt = time.UnixMilli(createdAt)
		job.UpdatedAt = time.UnixMilli(updatedAt)
		loaded = append(loaded, &job)
	}
	return loaded, rows.Err()
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.GenerationJob) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generation_jobs (id, source, dedupe_key, payload, status, result_ref, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			dedupe_key = excluded.dedupe_key,
			payload = excluded.payload,
			status = excluded.status,
			result_ref = excluded.result_ref,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		job.ID, job.Source, job.DedupeKey, string(payload), string(job.Status),
		job.ResultRef, job.Error, job.CreatedAt.UnixMilli(), job.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generation_jobs WHERE id = ?`, jobID); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	return nil
}
