package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/progress"
	"github.com/stocklane-platform/api/internal/store"
)

// RowSet is the parsed content of one source file.
type RowSet struct {
	Headers []string
	Rows    []Row
}

// RowSource yields the parsed rows of a file, whether it came from a manual
// upload or a remote file server.
type RowSource interface {
	Rows(ctx context.Context) (RowSet, error)
}

// Store is the backend-store surface the pipeline writes through.
type Store interface {
	ListFieldMappings(ctx context.Context, supplierID uuid.UUID) ([]store.FieldMapping, error)
	ReplaceFieldMappings(ctx context.Context, supplierID uuid.UUID, entries []store.FieldMappingEntry) error
	CountProductsBySupplier(ctx context.Context, supplierID uuid.UUID) (int, error)
	DeleteProductsBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	InsertProducts(ctx context.Context, products []store.ProductInsert) error
	CreateImportRun(ctx context.Context, supplierID uuid.UUID, fileName string) (store.ImportRun, error)
	GetImportRunByID(ctx context.Context, id uuid.UUID) (store.ImportRun, error)
	UpdateImportRunProgress(ctx context.Context, id uuid.UUID, totalRows, importedRows, skippedRows int) error
	FinalizeImportRun(ctx context.Context, id uuid.UUID, status string, totalRows, importedRows, skippedRows int, errorDetails []byte) error
	MarkStaleRunsFailed(ctx context.Context, olderThan time.Duration, errorDetails []byte) (int64, error)
}

// Service is the ingestion orchestrator: one call runs a complete import for
// one supplier end to end and returns the terminal run record.
type Service struct {
	store     Store
	locker    SupplierLocker
	sinks     []progress.Sink
	logger    *slog.Logger
	chunkSize int
}

type Option func(*Service)

func WithChunkSize(size int) Option {
	return func(s *Service) { s.chunkSize = size }
}

func WithSinks(sinks ...progress.Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

func New(st Store, locker SupplierLocker, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     st,
		locker:    locker,
		logger:    logger,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one import for the supplier from the given source and blocks
// until the run is terminal. The per-supplier lock is held from before the
// run row is created until the final insert, so two imports can never
// interleave their delete/insert phases; contention fails fast with
// ErrImportAlreadyRunning and no state mutation.
func (s *Service) Run(ctx context.Context, supplierID uuid.UUID, fileName string, source RowSource) (store.ImportRun, error) {
	release, err := s.locker.TryLock(ctx, supplierID)
	if err != nil {
		return store.ImportRun{}, err
	}
	defer release()

	run, err := s.store.CreateImportRun(ctx, supplierID, fileName)
	if err != nil {
		return store.ImportRun{}, fmt.Errorf("create import run: %w", err)
	}
	tracker := NewTracker(s.store, s.sinks, s.logger, run)

	started := time.Now()
	s.logger.Info("import_started",
		"import_run_id", run.ID,
		"supplier_id", supplierID,
		"file_name", fileName,
	)

	result, runErr := s.execute(ctx, supplierID, source, tracker)
	counts := RunCounts{Total: result.TotalRows, Imported: result.ImportedRows, Skipped: result.SkippedRows}

	if runErr != nil {
		if failErr := tracker.Fail(ctx, runErr.Error(), counts); failErr != nil && !errors.Is(failErr, ErrRunFinalized) {
			s.logger.Error("mark import failed", "import_run_id", run.ID, "error", failErr)
		}
		s.logger.Warn("import_failed",
			"import_run_id", run.ID,
			"supplier_id", supplierID,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", runErr,
		)
		return s.reload(ctx, tracker), runErr
	}

	var details map[string]any
	if len(result.Rejections) > 0 {
		breakdown := make(map[string]int, len(result.Rejections))
		for reason, count := range result.Rejections {
			breakdown[string(reason)] = count
		}
		details = map[string]any{"rejections": breakdown}
	}
	if err := tracker.Complete(ctx, counts, details); err != nil {
		return s.reload(ctx, tracker), fmt.Errorf("complete import run: %w", err)
	}

	s.logger.Info("import_completed",
		"import_run_id", run.ID,
		"supplier_id", supplierID,
		"total_rows", counts.Total,
		"imported_rows", counts.Imported,
		"skipped_rows", counts.Skipped,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return s.reload(ctx, tracker), nil
}

func (s *Service) execute(ctx context.Context, supplierID uuid.UUID, source RowSource, tracker *Tracker) (BatchResult, error) {
	mapping, err := s.ResolveMapping(ctx, supplierID)
	if err != nil {
		return BatchResult{}, err
	}

	rowSet, err := source.Rows(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return s.runBatch(ctx, supplierID, mapping, rowSet.Rows, tracker)
}

// reload returns the persisted run when possible so callers see the stored
// terminal record, falling back to the tracker's in-memory copy.
func (s *Service) reload(ctx context.Context, tracker *Tracker) store.ImportRun {
	run, err := s.store.GetImportRunByID(ctx, tracker.Run().ID)
	if err != nil {
		return tracker.Run()
	}
	return run
}

// ReconcileStaleRuns marks runs stuck in processing beyond the cutoff as
// failed. Runs get orphaned when the process dies between creating the run
// row and the terminal transition.
func (s *Service) ReconcileStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	details := []byte(`{"message": "import run abandoned: no terminal status within the stale-run window"}`)
	reconciled, err := s.store.MarkStaleRunsFailed(ctx, olderThan, details)
	if err != nil {
		return 0, fmt.Errorf("reconcile stale runs: %w", err)
	}
	if reconciled > 0 {
		s.logger.Warn("stale_import_runs_reconciled", "count", reconciled)
	}
	return reconciled, nil
}
