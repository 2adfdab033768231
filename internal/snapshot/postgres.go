package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flight-state-table/internal/model"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS state_snapshots (
	id          SMALLINT PRIMARY KEY,
	payload     BYTEA NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL
)`

// snapshotRowID is the key of the single snapshot row.
const snapshotRowID = 1

// PostgresStore keeps the snapshot as a single upserted row.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Connect opens a pool for dsn, pings it, and ensures the snapshot table
// exists.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Migrate creates the snapshot table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Save overwrites the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO state_snapshots (id, payload, captured_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, captured_at = EXCLUDED.captured_at`,
		snapshotRowID, payload, s.now().UTC())
	if err != nil {
		return &PersistenceError{Op: "save", Path: "state_snapshots", Err: err}
	}
	return nil
}

// Load reads the snapshot row.
func (s *PostgresStore) Load(ctx context.Context) (*model.Snapshot, bool, error) {
	var snap model.Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT payload, captured_at FROM state_snapshots WHERE id = $1`, snapshotRowID,
	).Scan(&snap.Payload, &snap.CapturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "load", Path: "state_snapshots", Err: err}
	}
	return &snap, true, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
