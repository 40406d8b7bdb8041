package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_records (
	id            TEXT PRIMARY KEY,
	provider      TEXT NOT NULL,
	operation     TEXT NOT NULL,
	cost_usd      REAL NOT NULL,
	results_count INTEGER NOT NULL DEFAULT 0,
	metadata      TEXT,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_created_at ON cost_records(created_at);
CREATE INDEX IF NOT EXISTS idx_cost_records_provider ON cost_records(provider);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCacheEntry(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE key = ? AND expires_at > datetime('now')`,
		key,
	)

	var value []byte
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get cache entry")
	}
	return value, true, nil
}

func (s *SQLiteStore) SetCacheEntry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, value, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cache entry")
}

func (s *SQLiteStore) DeleteCacheEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return eris.Wrap(err, "sqlite: delete cache entry")
}

func (s *SQLiteStore) DeleteCacheByPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, prefix,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete cache by prefix")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) DeleteExpiredCache(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) AppendCostRecords(ctx context.Context, records []model.CostRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cost_records (id, provider, operation, cost_usd, results_count, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		var metaJSON []byte
		if len(r.Metadata) > 0 {
			metaJSON, err = json.Marshal(r.Metadata)
			if err != nil {
				return eris.Wrap(err, "sqlite: marshal metadata")
			}
		}
		if _, err := stmt.ExecContext(ctx,
			id, r.Provider, string(r.Operation), r.CostUSD, r.ResultsCount, string(metaJSON), r.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert cost record")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit cost records")
}

func (s *SQLiteStore) ListCostRecords(ctx context.Context, start, end time.Time) ([]model.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, operation, cost_usd, results_count, metadata, created_at
		 FROM cost_records WHERE created_at >= ? AND created_at < ? ORDER BY created_at`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cost records")
	}
	defer rows.Close()

	var records []model.CostRecord
	for rows.Next() {
		var r model.CostRecord
		var op string
		var metaJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.Provider, &op, &r.CostUSD, &r.ResultsCount, &metaJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cost record")
		}
		r.Operation = model.Operation(op)
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &r.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
			}
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list cost records iterate")
}
