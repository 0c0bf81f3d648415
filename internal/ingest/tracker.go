package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/progress"
	"github.com/stocklane-platform/api/internal/store"
)

// RunCounts is one snapshot of an import run's row counters.
type RunCounts struct {
	Total    int
	Imported int
	Skipped  int
}

// Tracker owns the lifecycle of a single import run: processing with
// monotonic count refreshes, then exactly one terminal transition to
// completed or failed. It is the single source of truth a poller or a pushed
// consumer sees.
type Tracker struct {
	store  RunStore
	sinks  []progress.Sink
	logger *slog.Logger

	mu        sync.Mutex
	run       store.ImportRun
	counts    RunCounts
	finalized bool
}

// RunStore is the slice of the backend store the tracker needs.
type RunStore interface {
	UpdateImportRunProgress(ctx context.Context, id uuid.UUID, totalRows, importedRows, skippedRows int) error
	FinalizeImportRun(ctx context.Context, id uuid.UUID, status string, totalRows, importedRows, skippedRows int, errorDetails []byte) error
}

func NewTracker(runStore RunStore, sinks []progress.Sink, logger *slog.Logger, run store.ImportRun) *Tracker {
	return &Tracker{store: runStore, sinks: sinks, logger: logger, run: run}
}

func (t *Tracker) Run() store.ImportRun {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run
}

// Progress refreshes the run's counters while it is still processing. Counts
// never regress: a stale snapshot is clamped against what was already
// reported.
func (t *Tracker) Progress(ctx context.Context, counts RunCounts) error {
	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		return ErrRunFinalized
	}
	t.counts = clampCounts(t.counts, counts)
	counts = t.counts
	t.mu.Unlock()

	if err := t.store.UpdateImportRunProgress(ctx, t.run.ID, counts.Total, counts.Imported, counts.Skipped); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}
	t.publish(ctx, counts, store.RunStatusProcessing)
	return nil
}

// Complete freezes the final counts and marks the run completed. Details, if
// any, are persisted as the structured error_details payload (used for the
// per-reason rejection breakdown).
func (t *Tracker) Complete(ctx context.Context, counts RunCounts, details map[string]any) error {
	return t.finalize(ctx, store.RunStatusCompleted, counts, details)
}

// Fail marks the run failed with a human-readable message.
func (t *Tracker) Fail(ctx context.Context, message string, counts RunCounts) error {
	return t.finalize(ctx, store.RunStatusFailed, counts, map[string]any{"message": message})
}

func (t *Tracker) finalize(ctx context.Context, status string, counts RunCounts, details map[string]any) error {
	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		return ErrRunFinalized
	}
	t.finalized = true
	t.counts = clampCounts(t.counts, counts)
	counts = t.counts
	t.run.Status = status
	t.run.TotalRows = counts.Total
	t.run.ImportedRows = counts.Imported
	t.run.SkippedRows = counts.Skipped
	t.mu.Unlock()

	var errorDetails []byte
	if len(details) > 0 {
		encoded, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal error details: %w", err)
		}
		errorDetails = encoded
	}

	if err := t.store.FinalizeImportRun(ctx, t.run.ID, status, counts.Total, counts.Imported, counts.Skipped, errorDetails); err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	t.publish(ctx, counts, status)
	return nil
}

func (t *Tracker) publish(ctx context.Context, counts RunCounts, status string) {
	update := progress.Update{
		ImportRunID:  t.run.ID,
		SupplierID:   t.run.SupplierID,
		TotalRows:    counts.Total,
		ImportedRows: counts.Imported,
		SkippedRows:  counts.Skipped,
		Status:       status,
	}
	for _, sink := range t.sinks {
		if err := sink.Publish(ctx, update); err != nil {
			t.logger.Warn("progress publish failed", "import_run_id", t.run.ID, "error", err)
		}
	}
}

func clampCounts(prev, next RunCounts) RunCounts {
	if next.Total < prev.Total {
		next.Total = prev.Total
	}
	if next.Imported < prev.Imported {
		next.Imported = prev.Imported
	}
	if next.Skipped < prev.Skipped {
		next.Skipped = prev.Skipped
	}
	return next
}
