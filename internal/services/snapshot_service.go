package services

import (
	"context"
	"fmt"
	"log/slog"

	"stepqueen/internal/core"
)

// SnapshotStore is the local store a SnapshotService saves into.
type SnapshotStore interface {
	Save(ctx context.Context, t core.Table) (int64, error)
	Close() error
}

// SyncPublisher announces a new snapshot version to the mirror worker.
type SyncPublisher interface {
	PublishSnapshotSync(ctx context.Context, version int64) error
	Close() error
}

// SnapshotService saves snapshots locally and publishes a sync message for
// each new version.
type SnapshotService struct {
	storage   SnapshotStore
	publisher SyncPublisher
}

// NewSnapshotService accepts a nil publisher when no broker is configured.
func NewSnapshotService(storage SnapshotStore, publisher SyncPublisher) *SnapshotService {
	return &SnapshotService{
		storage:   storage,
		publisher: publisher,
	}
}

// Save writes t to the local store, then publishes its version. Only the
// local write can fail the call.
func (s *SnapshotService) Save(ctx context.Context, t core.Table) (int64, error) {
	version, err := s.storage.Save(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	if err := s.publishSyncMessage(ctx, version); err != nil {
		// The worker's reconciliation pass picks the version up later.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"version", version, "error", err)
	}

	return version, nil
}

func (s *SnapshotService) publishSyncMessage(ctx context.Context, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "version", version)
		return nil
	}
	return s.publisher.PublishSnapshotSync(ctx, version)
}

// Close closes both storage and publisher connections.
func (s *SnapshotService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close snapshot service: %v", errs)
	}

	return nil
}
