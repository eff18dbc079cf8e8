package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PendingSyncer mirrors any local snapshot version the spreadsheet has not seen.
type PendingSyncer interface {
	ProcessPending(ctx context.Context) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for unsynced versions (default: 30s)
	PollInterval time.Duration

	// MaxRetries is how many consecutive failures are tolerated before they
	// are logged as errors (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		MaxRetries:   3,
	}
}

// SyncProcessor periodically reconciles the spreadsheet mirror. It recovers
// versions whose sync message was lost or whose delivery failed.
type SyncProcessor struct {
	syncer PendingSyncer
	config SyncProcessorConfig

	failures int

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	doneCh   chan struct{}
}

func NewSyncProcessor(syncer PendingSyncer, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	return &SyncProcessor{
		syncer: syncer,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.stopOnce = &sync.Once{}
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started", "poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion. It may be
// called again after a timeout to keep waiting.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, stopOnce, doneCh := p.stopCh, p.stopOnce, p.doneCh
	p.mu.Unlock()

	stopOnce.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Reconcile immediately on startup
	p.reconcile(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reconcile(ctx)
		}
	}
}

func (p *SyncProcessor) reconcile(ctx context.Context) {
	if p.syncer == nil {
		return
	}

	if err := p.syncer.ProcessPending(ctx); err != nil {
		p.failures++
		if p.failures >= p.config.MaxRetries {
			slog.ErrorContext(ctx, "Snapshot reconciliation keeps failing",
				"consecutive_failures", p.failures,
				"error", err)
		} else {
			slog.WarnContext(ctx, "Snapshot reconciliation failed",
				"attempt", p.failures,
				"error", err)
		}
		return
	}

	if p.failures > 0 {
		slog.InfoContext(ctx, "Snapshot reconciliation recovered", "after_failures", p.failures)
	}
	p.failures = 0
}
