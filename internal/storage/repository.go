package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"stepqueen/internal/core"
	"stepqueen/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ sheets.RecordStore = (*SQLiteRepository)(nil)

// SQLiteRepository keeps the step table in a local SQLite file. Every
// replacement bumps a snapshot version so a mirror can tell what it has
// already copied.
type SQLiteRepository struct {
	db *sql.DB
}

// SyncState reports the local snapshot version and the last mirrored one.
type SyncState struct {
	Version       int64
	SyncedVersion int64
	// Imported is set once the spreadsheet has been merged in.
	Imported  bool
	UpdatedAt time.Time
}

// Pending reports whether the local snapshot is ahead of the mirror.
func (s SyncState) Pending() bool {
	return s.Version > s.SyncedVersion
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Read implements sheets.Reader
func (r *SQLiteRepository) Read(ctx context.Context) (core.Table, error) {
	t, _, err := r.ReadVersioned(ctx)
	return t, err
}

// ReadVersioned returns the table together with the version it belongs to.
func (r *SQLiteRepository) ReadVersioned(ctx context.Context) (core.Table, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Table{}, 0, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT version FROM snapshot_state WHERE id = 1`).Scan(&version); err != nil {
		return core.Table{}, 0, fmt.Errorf("get snapshot version: %w", err)
	}

	records, err := readRecords(ctx, tx)
	if err != nil {
		return core.Table{}, 0, err
	}
	return core.ToTable(records), version, nil
}

// WriteAll implements sheets.Writer
func (r *SQLiteRepository) WriteAll(ctx context.Context, t core.Table) error {
	_, err := r.Save(ctx, t)
	return err
}

// Save replaces the stored table and returns the new snapshot version.
// Rows that do not normalize to valid records are not stored.
func (r *SQLiteRepository) Save(ctx context.Context, t core.Table) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	records := core.LoadSnapshot(t)
	version, err := writeRecords(ctx, tx, records,
		`UPDATE snapshot_state SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = 1 RETURNING version`)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit write: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"version", version,
		"records", len(records),
		"dropped_rows", len(t.Rows)-len(records))
	return version, nil
}

// MergeImport folds the spreadsheet's rows into the stored table and marks the
// store as imported. Local records win their (date, person) slot. When nothing
// was stored locally the result already matches the mirror and is recorded as
// synced; otherwise the merged snapshot is left pending.
func (r *SQLiteRepository) MergeImport(ctx context.Context, remote core.Table) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	local, err := readRecords(ctx, tx)
	if err != nil {
		return 0, err
	}

	merged := core.LoadSnapshot(remote)
	for _, rec := range local {
		merged = core.Upsert(merged, rec)
	}

	query := `UPDATE snapshot_state SET version = version + 1, imported = 1, updated_at = CURRENT_TIMESTAMP WHERE id = 1 RETURNING version`
	if len(local) == 0 {
		query = `UPDATE snapshot_state SET version = version + 1, synced_version = version + 1, imported = 1, updated_at = CURRENT_TIMESTAMP WHERE id = 1 RETURNING version`
	}
	version, err := writeRecords(ctx, tx, merged, query)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Spreadsheet merged into SQLite",
		"version", version,
		"remote_rows", len(remote.Rows),
		"local_records", len(local),
		"records", len(merged))
	return version, nil
}

func readRecords(ctx context.Context, tx *sql.Tx) ([]core.StepRecord, error) {
	rows, err := tx.QueryContext(ctx, `SELECT date, person, steps FROM step_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list step records: %w", err)
	}
	defer rows.Close()

	var records []core.StepRecord
	for rows.Next() {
		var (
			date, person string
			steps        int64
		)
		if err := rows.Scan(&date, &person, &steps); err != nil {
			return nil, fmt.Errorf("scan step record: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored record with invalid date", "date", date, "person", person)
			continue
		}
		records = append(records, core.StepRecord{Date: d, Person: person, Steps: steps})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step records: %w", err)
	}
	return records, nil
}

// writeRecords replaces step_records and runs bump, which must return the new version.
func writeRecords(ctx context.Context, tx *sql.Tx, records []core.StepRecord, bump string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM step_records`); err != nil {
		return 0, fmt.Errorf("clear step records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO step_records (position, date, person, steps) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, i, rec.Date.String(), rec.Person, rec.Steps); err != nil {
			return 0, fmt.Errorf("insert step record %d: %w", i, err)
		}
	}

	var version int64
	if err := tx.QueryRowContext(ctx, bump).Scan(&version); err != nil {
		return 0, fmt.Errorf("bump snapshot version: %w", err)
	}
	return version, nil
}

// SyncState returns the current version bookkeeping.
func (r *SQLiteRepository) SyncState(ctx context.Context) (SyncState, error) {
	var (
		s         SyncState
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT version, synced_version, imported, strftime('%Y-%m-%dT%H:%M:%SZ', updated_at) FROM snapshot_state WHERE id = 1`,
	).Scan(&s.Version, &s.SyncedVersion, &s.Imported, &updatedAt)
	if err != nil {
		return SyncState{}, fmt.Errorf("get sync state: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		s.UpdatedAt = ts
	}
	return s, nil
}

// MarkSynced records that version has been mirrored. Older versions never
// move the marker backwards.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE snapshot_state SET synced_version = MAX(synced_version, ?) WHERE id = 1`, version)
	if err != nil {
		return fmt.Errorf("mark snapshot synced: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot marked as synced", "version", version)
	return nil
}
