package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"stepqueen/internal/amqp"
	"stepqueen/internal/core"
	"stepqueen/internal/sheets"
	"stepqueen/internal/storage"
)

// LocalStore is the versioned SQLite side of the mirror.
type LocalStore interface {
	ReadVersioned(ctx context.Context) (core.Table, int64, error)
	SyncState(ctx context.Context) (storage.SyncState, error)
	MarkSynced(ctx context.Context, version int64) error
	MergeImport(ctx context.Context, remote core.Table) (int64, error)
}

var _ LocalStore = (*storage.SQLiteRepository)(nil)

// SyncWorker mirrors the local SQLite snapshot into the spreadsheet. Only the
// latest version is ever written; older messages are acknowledged and skipped.
type SyncWorker struct {
	storage LocalStore
	sheet   sheets.RecordStore

	// mu serializes mirror writes between the consumer and the reconciler.
	mu sync.Mutex
}

func NewSyncWorker(storage LocalStore, sheet sheets.RecordStore) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		sheet:   sheet,
	}
}

// HandleSyncMessage processes a single snapshot sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"version", msg.Version,
		"published_at", msg.Timestamp)

	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if msg.Version <= state.SyncedVersion {
		slog.DebugContext(ctx, "Version already mirrored, skipping",
			"version", msg.Version,
			"synced_version", state.SyncedVersion)
		return nil
	}

	return w.mirrorLatest(ctx)
}

// ProcessPending mirrors the local snapshot when it is ahead of the sheet, and
// retries the initial import until it succeeds. This is the backup path for
// lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if state.Imported && !state.Pending() {
		return nil
	}

	slog.InfoContext(ctx, "Found unsynced snapshot",
		"version", state.Version,
		"synced_version", state.SyncedVersion)

	return w.mirrorLatest(ctx)
}

// EnsureImported merges the spreadsheet into the local store once. Until it
// succeeds nothing is mirrored back, so a partial local table can never
// replace the sheet.
func (w *SyncWorker) EnsureImported(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ensureImportedLocked(ctx)
}

func (w *SyncWorker) ensureImportedLocked(ctx context.Context) error {
	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if state.Imported {
		return nil
	}

	remote, err := w.sheet.Read(ctx)
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}

	version, err := w.storage.MergeImport(ctx, remote)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Imported snapshot from spreadsheet",
		"version", version,
		"rows", len(remote.Rows),
		"local_version", state.Version)
	return nil
}

func (w *SyncWorker) mirrorLatest(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureImportedLocked(ctx); err != nil {
		return err
	}

	t, version, err := w.storage.ReadVersioned(ctx)
	if err != nil {
		return fmt.Errorf("read local snapshot: %w", err)
	}

	// A concurrent pass may already have mirrored this version.
	state, err := w.storage.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}
	if version <= state.SyncedVersion {
		return nil
	}

	if err := w.sheet.WriteAll(ctx, t); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, version); err != nil {
		// The sheet already holds this version; the next pass rewrites it harmlessly.
		slog.ErrorContext(ctx, "Failed to mark as synced", "version", version, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Successfully mirrored snapshot",
		"version", version,
		"rows", len(t.Rows))
	return nil
}
