package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

// Pool abstracts the pgx pool operations used by PostgresStore, so tests
// can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_records (
	id            TEXT PRIMARY KEY,
	provider      TEXT NOT NULL,
	operation     TEXT NOT NULL,
	cost_usd      DOUBLE PRECISION NOT NULL,
	results_count INTEGER NOT NULL DEFAULT 0,
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_created_at ON cost_records(created_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_provider ON cost_records(provider);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCacheEntry(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT value FROM cache_entries WHERE key = $1 AND expires_at > now()`,
		key,
	)

	var value []byte
	err := row.Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get cache entry")
	}
	return value, true, nil
}

func (s *PostgresStore) SetCacheEntry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value, created_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		key, value, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cache entry")
}

func (s *PostgresStore) DeleteCacheEntry(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return eris.Wrap(err, "postgres: delete cache entry")
}

func (s *PostgresStore) DeleteCacheByPrefix(ctx context.Context, prefix string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cache_entries WHERE key LIKE $1 || '%'`, prefix,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete cache by prefix")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteExpiredCache(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired cache")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) AppendCostRecords(ctx context.Context, records []model.CostRecord) error {
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		var metaJSON []byte
		if len(r.Metadata) > 0 {
			var err error
			metaJSON, err = json.Marshal(r.Metadata)
			if err != nil {
				return eris.Wrap(err, "postgres: marshal metadata")
			}
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO cost_records (id, provider, operation, cost_usd, results_count, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, r.Provider, string(r.Operation), r.CostUSD, r.ResultsCount, metaJSON, r.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrap(err, "postgres: insert cost record")
		}
	}
	return nil
}

func (s *PostgresStore) ListCostRecords(ctx context.Context, start, end time.Time) ([]model.CostRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, provider, operation, cost_usd, results_count, metadata, created_at
		 FROM cost_records WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cost records")
	}
	defer rows.Close()

	var records []model.CostRecord
	for rows.Next() {
		var r model.CostRecord
		var op string
		var metaJSON []byte
		if err := rows.Scan(&r.ID, &r.Provider, &op, &r.CostUSD, &r.ResultsCount, &metaJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cost record")
		}
		r.Operation = model.Operation(op)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal metadata")
			}
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list cost records iterate")
}
