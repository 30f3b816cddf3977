package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one archived poll result. The raw snapshot JSON is kept
// alongside the summary columns so the full page can be reconstructed.
type Record struct {
	ID         string
	Instrument string
	ConfigName string
	RunState   string
	Snapshot   []byte
	FetchedAt  time.Time
}

// Archive persists poll results so the last known state of an
// instrument survives restarts and short outages.
type Archive interface {
	Store(ctx context.Context, rec *Record) error
	Latest(ctx context.Context, instrument string) (*Record, error)
	Count(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context, maxAge time.Duration) error
	Close() error
}

type SQLiteArchive struct {
	log *slog.Logger
	db  *sql.DB
}

func NewSQLiteArchive(log *slog.Logger, dbPath string) (*SQLiteArchive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	arch := &SQLiteArchive{
		log: log,
		db:  db,
	}

	if err := arch.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return arch, nil
}

func (a *SQLiteArchive) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			instrument TEXT NOT NULL,
			config_name TEXT,
			runstate TEXT,
			snapshot_json TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_instrument ON snapshots(instrument, fetched_at);
		CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
	`
	_, err := a.db.Exec(query)
	return err
}

func (a *SQLiteArchive) Store(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO snapshots (id, instrument, config_name, runstate, snapshot_json, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.Instrument,
		rec.ConfigName,
		rec.RunState,
		string(rec.Snapshot),
		rec.FetchedAt.Format(time.RFC3339),
	)

	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	a.log.Debug("snapshot archived",
		slog.String("id", rec.ID),
		slog.String("instrument", rec.Instrument),
	)
	return nil
}

func (a *SQLiteArchive) Latest(ctx context.Context, instrument string) (*Record, error) {
	query := `
		SELECT id, instrument, config_name, runstate, snapshot_json, fetched_at
		FROM snapshots
		WHERE instrument = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var (
		rec          Record
		snapshotJSON string
		fetchedAtStr string
	)

	err := a.db.QueryRowContext(ctx, query, instrument).Scan(
		&rec.ID,
		&rec.Instrument,
		&rec.ConfigName,
		&rec.RunState,
		&snapshotJSON,
		&fetchedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, fetchedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
	}

	rec.Snapshot = []byte(snapshotJSON)
	rec.FetchedAt = fetchedAt
	return &rec, nil
}

func (a *SQLiteArchive) Count(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

func (a *SQLiteArchive) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := a.db.ExecContext(ctx, "DELETE FROM snapshots WHERE fetched_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old snapshots: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		a.log.Info("cleaned up old archive entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
