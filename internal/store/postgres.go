package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/findata-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through this interface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore backs the filing cache with postgres. Snapshots are
// stored as JSONB so ad-hoc queries against cached statements stay
// possible without another schema.
type PostgresStore struct {
	pool Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "parsing postgres dsn")
	}
	cfg.MaxConns = 8
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "creating postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pinging postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wires an existing pool, used by tests.
func NewPostgresStoreWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS filing_cache (
	id           UUID PRIMARY KEY,
	company_id   TEXT NOT NULL,
	filing_type  TEXT NOT NULL,
	period       TEXT NOT NULL,
	snapshots    JSONB NOT NULL,
	empty        BOOLEAN NOT NULL DEFAULT FALSE,
	etag         TEXT NOT NULL DEFAULT '',
	fetched_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (company_id, filing_type, period)
);
CREATE INDEX IF NOT EXISTS idx_filing_cache_company
	ON filing_cache (company_id, filing_type);

CREATE TABLE IF NOT EXISTS fetch_log (
	company_id   TEXT NOT NULL,
	fetched_at   TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_company
	ON fetch_log (company_id, fetched_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "migrating postgres schema")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyID string, filingType model.FilingType, period string) (*model.CacheEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, snapshots, empty, etag, fetched_at
		FROM filing_cache
		WHERE company_id = $1 AND filing_type = $2 AND period = $3`,
		companyID, string(filingType), period)

	var (
		entry     = model.CacheEntry{CompanyID: companyID, FilingType: filingType, Period: period}
		snapshots []byte
	)
	if err := row.Scan(&entry.ID, &snapshots, &entry.Empty, &entry.ETag, &entry.FetchedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reading cache entry %s/%s/%s", companyID, filingType, period)
	}
	if err := json.Unmarshal(snapshots, &entry.Snapshots); err != nil {
		return nil, eris.Wrapf(err, "decoding snapshots for %s/%s/%s", companyID, filingType, period)
	}
	return &entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, entry *model.CacheEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	snapshots, err := json.Marshal(entry.Snapshots)
	if err != nil {
		return eris.Wrap(err, "encoding snapshots")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO filing_cache (id, company_id, filing_type, period, snapshots, empty, etag, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id, filing_type, period) DO UPDATE SET
			snapshots  = EXCLUDED.snapshots,
			empty      = EXCLUDED.empty,
			etag       = EXCLUDED.etag,
			fetched_at = EXCLUDED.fetched_at`,
		entry.ID, entry.CompanyID, string(entry.FilingType), entry.Period,
		snapshots, entry.Empty, entry.ETag, entry.FetchedAt.UTC())
	if err != nil {
		return eris.Wrapf(err, "upserting cache entry %s/%s/%s", entry.CompanyID, entry.FilingType, entry.Period)
	}
	return nil
}

func (s *PostgresStore) Invalidate(ctx context.Context, companyID string, filingType model.FilingType, period string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM filing_cache
		WHERE company_id = $1 AND filing_type = $2 AND period = $3`,
		companyID, string(filingType), period)
	return eris.Wrapf(err, "invalidating cache entry %s/%s/%s", companyID, filingType, period)
}

func (s *PostgresStore) ListPeriods(ctx context.Context, companyID string, filingType model.FilingType) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT period FROM filing_cache
		WHERE company_id = $1 AND filing_type = $2
		ORDER BY period DESC`,
		companyID, string(filingType))
	if err != nil {
		return nil, eris.Wrapf(err, "listing periods for %s/%s", companyID, filingType)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "scanning period")
		}
		periods = append(periods, p)
	}
	return periods, eris.Wrap(rows.Err(), "iterating periods")
}

func (s *PostgresStore) RecordFetch(ctx context.Context, companyID string, at time.Time, status string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fetch_log (company_id, fetched_at, status) VALUES ($1, $2, $3)`,
		companyID, at.UTC(), status)
	return eris.Wrapf(err, "recording fetch for %s", companyID)
}

func (s *PostgresStore) LastFetch(ctx context.Context, companyID string) (*time.Time, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT fetched_at FROM fetch_log
		WHERE company_id = $1
		ORDER BY fetched_at DESC LIMIT 1`,
		companyID)
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reading last fetch for %s", companyID)
	}
	return &ts, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
