package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists bulk validation jobs and their per-address results.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and runs migrations.
func Open(ctx context.Context, connString string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

var migrations = []struct {
	name  string
	query string
}{
	{"jobs", `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		total_count INT NOT NULL DEFAULT 0,
		processed_count INT NOT NULL DEFAULT 0,
		check_smtp BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	);`},
	// the full result is kept as JSONB next to the columns the stats query reads
	{"results", `
	CREATE TABLE IF NOT EXISTS results (
		id SERIAL PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id),
		email TEXT NOT NULL,
		verified BOOLEAN NOT NULL,
		score INT NOT NULL,
		warnings TEXT NOT NULL DEFAULT '',
		disposable BOOLEAN NOT NULL DEFAULT FALSE,
		role_based BOOLEAN NOT NULL DEFAULT FALSE,
		recommendation TEXT NOT NULL,
		data JSONB NOT NULL
	);`},
	{"results_job_idx", `CREATE INDEX IF NOT EXISTS results_job_id_idx ON results (job_id);`},
}

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m.query); err != nil {
			return fmt.Errorf("migration failed (%s): %w", m.name, err)
		}
	}
	return nil
}
