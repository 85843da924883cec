package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/astowny/monteur-ia/internal/analytics"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/internal/payload"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is the durable job store and analytics event log.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection serializes writes, so every upsert lands whole
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// UpsertJob writes every field of job in a single statement.
func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.CloudJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	body, err := payload.Marshal(job.Payload)
	if err != nil {
		return err
	}
	var result sql.NullString
	if job.Result != nil {
		raw, err := payload.Marshal(job.Result)
		if err != nil {
			return err
		}
		result = sql.NullString{String: raw, Valid: true}
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, operation, payload, status, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			operation=excluded.operation,
			payload=excluded.payload,
			status=excluded.status,
			result=excluded.result,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at`,
		job.ID,
		string(job.Operation),
		body,
		string(job.Status),
		result,
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	)
	return err
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*jobs.CloudJob, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, operation, payload, status, result, created_at, updated_at
		 FROM jobs
		 WHERE id = ?`,
		id,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", jobs.ErrNotFound, id)
	}
	return job, err
}

func (s *SQLiteStore) ListJobsByStatus(ctx context.Context, status jobs.Status) ([]*jobs.CloudJob, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, operation, payload, status, result, created_at, updated_at
		 FROM jobs
		 WHERE status = ?
		 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.CloudJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*jobs.CloudJob, error) {
	var (
		job       jobs.CloudJob
		operation string
		status    string
		body      string
		result    sql.NullString
	)
	if err := row.Scan(&job.ID, &operation, &body, &status, &result, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Operation = jobs.Operation(operation)
	job.Status = jobs.Status(status)

	var err error
	if job.Payload, err = payload.Unmarshal(body); err != nil {
		return nil, fmt.Errorf("job %s payload: %w", job.ID, err)
	}
	if result.Valid {
		if job.Result, err = payload.Unmarshal(result.String); err != nil {
			return nil, fmt.Errorf("job %s result: %w", job.ID, err)
		}
	}
	return &job, nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, name string, properties payload.Bundle) error {
	raw, err := payload.Marshal(properties)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO analytics_events (name, properties) VALUES (?, ?)`, name, raw)
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]analytics.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, properties FROM analytics_events ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]analytics.Event, 0)
	for rows.Next() {
		var (
			item analytics.Event
			raw  string
		)
		if err := rows.Scan(&item.Name, &raw); err != nil {
			return nil, err
		}
		if item.Properties, err = payload.Unmarshal(raw); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
