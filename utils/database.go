package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"maxscale/models"
)

func OpenDB(dsn string) (*pgxpool.Pool, error) {
	// Parse the connection string into a pgxpool.Config
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

const rateLimitSchema = `CREATE TABLE IF NOT EXISTS rate_limits (
	key      TEXT PRIMARY KEY,
	count    BIGINT NOT NULL,
	reset_at TIMESTAMPTZ NOT NULL
);`

// $2 is now and $3 is now plus the window.
const rateLimitHit = `INSERT INTO rate_limits (key, count, reset_at) VALUES ($1, 1, $3)
ON CONFLICT (key) DO UPDATE SET
	count = CASE WHEN $2 > rate_limits.reset_at THEN 1 ELSE rate_limits.count + 1 END,
	reset_at = CASE WHEN $2 > rate_limits.reset_at THEN EXCLUDED.reset_at ELSE rate_limits.reset_at END
RETURNING count, reset_at;`

// PostgresStore shares rate-limit windows between server instances through
// a single table. Every hit is one upsert, so concurrent hits on the same
// key serialize on the row lock.
type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the rate_limits table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.Exec(ctx, rateLimitSchema); err != nil {
		return fmt.Errorf("create rate_limits table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Hit(ctx context.Context, key string, window time.Duration) (models.RateLimitEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := s.now().UTC()
	var entry models.RateLimitEntry
	err := s.db.QueryRow(ctx, rateLimitHit, hashedKey("", key), now, now.Add(window)).
		Scan(&entry.Count, &entry.ResetTime)
	if err != nil {
		return models.RateLimitEntry{}, fmt.Errorf("postgres rate limit hit: %w", err)
	}
	return entry, nil
}

// Sweep deletes windows that ended before now.
func (s *PostgresStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx, "DELETE FROM rate_limits WHERE reset_at < $1", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep rate_limits: %w", err)
	}
	return tag.RowsAffected(), nil
}
