package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
)

type ImportRun struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	FileName     string
	Status       string
	TotalRows    int
	ImportedRows int
	SkippedRows  int
	ErrorDetails []byte
	StartedAt    time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

const importRunColumns = `id, supplier_id, file_name, status, total_rows, imported_rows, skipped_rows, error_details, started_at, completed_at, created_at`

func scanImportRun(row interface{ Scan(...any) error }) (ImportRun, error) {
	var run ImportRun
	err := row.Scan(
		&run.ID, &run.SupplierID, &run.FileName, &run.Status,
		&run.TotalRows, &run.ImportedRows, &run.SkippedRows,
		&run.ErrorDetails, &run.StartedAt, &run.CompletedAt, &run.CreatedAt,
	)
	return run, err
}

func (s *Store) CreateImportRun(ctx context.Context, supplierID uuid.UUID, fileName string) (ImportRun, error) {
	run, err := scanImportRun(s.pool.QueryRow(ctx, `
		INSERT INTO import_logs (supplier_id, file_name, status, total_rows, imported_rows, skipped_rows, started_at)
		VALUES ($1, $2, $3, 0, 0, 0, now())
		RETURNING `+importRunColumns,
		supplierID, fileName, RunStatusProcessing,
	))
	if err != nil {
		return ImportRun{}, fmt.Errorf("insert import run: %w", err)
	}
	return run, nil
}

// UpdateImportRunProgress refreshes counts on a run that is still processing.
// GREATEST keeps counts monotonic even if updates land out of order.
func (s *Store) UpdateImportRunProgress(ctx context.Context, id uuid.UUID, totalRows, importedRows, skippedRows int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_logs SET
			total_rows = GREATEST(total_rows, $2),
			imported_rows = GREATEST(imported_rows, $3),
			skipped_rows = GREATEST(skipped_rows, $4)
		WHERE id = $1 AND status = $5
	`, id, totalRows, importedRows, skippedRows, RunStatusProcessing)
	if err != nil {
		return fmt.Errorf("update import run progress: %w", err)
	}
	return nil
}

// FinalizeImportRun moves a processing run to its terminal status. The status
// guard in the WHERE clause makes the transition single-shot: a second call
// affects zero rows and reports ErrNotFound.
func (s *Store) FinalizeImportRun(ctx context.Context, id uuid.UUID, status string, totalRows, importedRows, skippedRows int, errorDetails []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_logs SET
			status = $2,
			total_rows = $3,
			imported_rows = $4,
			skipped_rows = $5,
			error_details = $6,
			completed_at = now()
		WHERE id = $1 AND status = $7
	`, id, status, totalRows, importedRows, skippedRows, errorDetails, RunStatusProcessing)
	if err != nil {
		return fmt.Errorf("finalize import run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetImportRunByID(ctx context.Context, id uuid.UUID) (ImportRun, error) {
	return scanImportRun(s.pool.QueryRow(ctx, `
		SELECT `+importRunColumns+`
		FROM import_logs
		WHERE id = $1
	`, id))
}

func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+importRunColumns+`
		FROM import_logs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) ListImportRunsBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+importRunColumns+`
		FROM import_logs
		WHERE supplier_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs by supplier: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkStaleRunsFailed is the reconciliation sweep: runs that crashed before a
// terminal transition would otherwise sit in processing forever.
func (s *Store) MarkStaleRunsFailed(ctx context.Context, olderThan time.Duration, errorDetails []byte) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE import_logs SET
			status = $1,
			error_details = $2,
			completed_at = now()
		WHERE status = $3 AND started_at < now() - $4::interval
	`, RunStatusFailed, errorDetails, RunStatusProcessing, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("mark stale runs failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
