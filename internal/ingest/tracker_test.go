package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/store"
)

func newTestTracker(t *testing.T) (*Tracker, *fakeStore) {
	t.Helper()
	supplierID := uuid.New()
	fs := newFakeStore(nil)
	run, err := fs.CreateImportRun(context.Background(), supplierID, "catalog.csv")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return NewTracker(fs, nil, testLogger(), run), fs
}

func TestTrackerCountsNeverRegress(t *testing.T) {
	tracker, fs := newTestTracker(t)
	ctx := context.Background()

	if err := tracker.Progress(ctx, RunCounts{Total: 100, Imported: 40, Skipped: 5}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	// A stale snapshot with lower counts must be clamped, not applied.
	if err := tracker.Progress(ctx, RunCounts{Total: 100, Imported: 20, Skipped: 2}); err != nil {
		t.Fatalf("progress: %v", err)
	}

	run := fs.runs[tracker.Run().ID]
	if run.ImportedRows != 40 || run.SkippedRows != 5 {
		t.Fatalf("counts regressed: imported %d skipped %d", run.ImportedRows, run.SkippedRows)
	}
}

func TestTrackerTerminalTransitionIsSingleShot(t *testing.T) {
	tracker, fs := newTestTracker(t)
	ctx := context.Background()

	if err := tracker.Complete(ctx, RunCounts{Total: 10, Imported: 10}, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := tracker.Fail(ctx, "too late", RunCounts{}); !errors.Is(err, ErrRunFinalized) {
		t.Fatalf("expected ErrRunFinalized from second transition, got %v", err)
	}
	if err := tracker.Complete(ctx, RunCounts{}, nil); !errors.Is(err, ErrRunFinalized) {
		t.Fatalf("expected ErrRunFinalized from repeat complete, got %v", err)
	}
	if err := tracker.Progress(ctx, RunCounts{Total: 99}); !errors.Is(err, ErrRunFinalized) {
		t.Fatalf("expected ErrRunFinalized from progress after terminal, got %v", err)
	}

	run := fs.runs[tracker.Run().ID]
	if run.Status != store.RunStatusCompleted {
		t.Fatalf("status = %q, want completed to stick", run.Status)
	}
	if run.TotalRows != 10 {
		t.Fatalf("total = %d, want the frozen 10", run.TotalRows)
	}
}

func TestTrackerFailRecordsMessage(t *testing.T) {
	tracker, fs := newTestTracker(t)

	if err := tracker.Fail(context.Background(), "ftp timed out", RunCounts{Total: 3}); err != nil {
		t.Fatalf("fail: %v", err)
	}

	run := fs.runs[tracker.Run().ID]
	if run.Status != store.RunStatusFailed {
		t.Fatalf("status = %q, want failed", run.Status)
	}
	if string(run.ErrorDetails) != `{"message":"ftp timed out"}` {
		t.Fatalf("error details = %s", run.ErrorDetails)
	}
}
