package progress

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Update is one progress snapshot for an import run. Delivery is
// at-least-once; consumers must tolerate duplicates and keep only the latest
// monotonic counts.
type Update struct {
	ImportRunID  uuid.UUID `json:"importRunId"`
	SupplierID   uuid.UUID `json:"supplierId"`
	TotalRows    int       `json:"totalRows"`
	ImportedRows int       `json:"importedRows"`
	SkippedRows  int       `json:"skippedRows"`
	Status       string    `json:"status"`
}

// Sink receives progress updates. Publish failures are non-fatal to the run.
type Sink interface {
	Publish(ctx context.Context, update Update) error
}

// LogSink writes every update to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, update Update) error {
	s.logger.Info("import_progress",
		"import_run_id", update.ImportRunID,
		"supplier_id", update.SupplierID,
		"total_rows", update.TotalRows,
		"imported_rows", update.ImportedRows,
		"skipped_rows", update.SkippedRows,
		"status", update.Status,
	)
	return nil
}
