package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/findata-cli/internal/model"
)

// SQLiteStore backs the filing cache with an embedded sqlite database.
// Snapshot payloads are stored as a JSON column; the natural key
// (company_id, filing_type, period) carries a unique index so Put can
// upsert with ON CONFLICT.
type SQLiteStore struct {
	db *sql.DB
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening sqlite database %s", path)
	}
	// sqlite handles one writer at a time; keep the pool small so
	// busy_timeout does the queueing instead of SQLITE_BUSY errors.
	db.SetMaxOpenConns(4)

	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "applying %q", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS filing_cache (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL,
	filing_type  TEXT NOT NULL,
	period       TEXT NOT NULL,
	snapshots    TEXT NOT NULL,
	empty        INTEGER NOT NULL DEFAULT 0,
	etag         TEXT NOT NULL DEFAULT '',
	fetched_at   TEXT NOT NULL,
	UNIQUE (company_id, filing_type, period)
);
CREATE INDEX IF NOT EXISTS idx_filing_cache_company
	ON filing_cache (company_id, filing_type);

CREATE TABLE IF NOT EXISTS fetch_log (
	company_id   TEXT NOT NULL,
	fetched_at   TEXT NOT NULL,
	status       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_company
	ON fetch_log (company_id, fetched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "migrating sqlite schema")
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, companyID string, filingType model.FilingType, period string) (*model.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, snapshots, empty, etag, fetched_at
		FROM filing_cache
		WHERE company_id = ? AND filing_type = ? AND period = ?`,
		companyID, string(filingType), period)

	var (
		entry     = model.CacheEntry{CompanyID: companyID, FilingType: filingType, Period: period}
		snapshots string
		empty     int
		fetchedAt string
	)
	if err := row.Scan(&entry.ID, &snapshots, &empty, &entry.ETag, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reading cache entry %s/%s/%s", companyID, filingType, period)
	}
	entry.Empty = empty != 0

	if err := json.Unmarshal([]byte(snapshots), &entry.Snapshots); err != nil {
		return nil, eris.Wrapf(err, "decoding snapshots for %s/%s/%s", companyID, filingType, period)
	}
	ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing fetched_at %q", fetchedAt)
	}
	entry.FetchedAt = ts
	return &entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry *model.CacheEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	snapshots, err := json.Marshal(entry.Snapshots)
	if err != nil {
		return eris.Wrap(err, "encoding snapshots")
	}
	empty := 0
	if entry.Empty {
		empty = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO filing_cache (id, company_id, filing_type, period, snapshots, empty, etag, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, filing_type, period) DO UPDATE SET
			snapshots  = excluded.snapshots,
			empty      = excluded.empty,
			etag       = excluded.etag,
			fetched_at = excluded.fetched_at`,
		entry.ID, entry.CompanyID, string(entry.FilingType), entry.Period,
		string(snapshots), empty, entry.ETag, entry.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrapf(err, "upserting cache entry %s/%s/%s", entry.CompanyID, entry.FilingType, entry.Period)
	}
	return nil
}

func (s *SQLiteStore) Invalidate(ctx context.Context, companyID string, filingType model.FilingType, period string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM filing_cache
		WHERE company_id = ? AND filing_type = ? AND period = ?`,
		companyID, string(filingType), period)
	if err != nil {
		return eris.Wrapf(err, "invalidating cache entry %s/%s/%s", companyID, filingType, period)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		zap.L().Debug("cache entry invalidated",
			zap.String("company_id", companyID),
			zap.String("filing_type", string(filingType)),
			zap.String("period", period))
	}
	return nil
}

func (s *SQLiteStore) ListPeriods(ctx context.Context, companyID string, filingType model.FilingType) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period FROM filing_cache
		WHERE company_id = ? AND filing_type = ?
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

func (s *SQLiteStore) RecordFetch(ctx context.Context, companyID string, at time.Time, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_log (company_id, fetched_at, status) VALUES (?, ?, ?)`,
		companyID, at.UTC().Format(time.RFC3339Nano), status)
	return eris.Wrapf(err, "recording fetch for %s", companyID)
}

func (s *SQLiteStore) LastFetch(ctx context.Context, companyID string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fetched_at FROM fetch_log
		WHERE company_id = ?
		ORDER BY fetched_at DESC LIMIT 1`,
		companyID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reading last fetch for %s", companyID)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing fetched_at %q", raw)
	}
	return &ts, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
