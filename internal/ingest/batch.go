package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/store"
)

// DefaultChunkSize bounds the size of a single bulk write.
const DefaultChunkSize = 100

// BatchResult aggregates one full traversal of a supplier's rows.
type BatchResult struct {
	TotalRows    int
	ImportedRows int
	SkippedRows  int
	Rejections   map[Reason]int
}

// runBatch executes the replace-all import for one supplier: validate every
// row, delete the existing catalog, insert accepted records in source order
// in fixed-size chunks, and push cumulative counts to the tracker as chunks
// land. A chunk failure aborts the remaining chunks.
//
// Deletion happens before the inserts complete, so a write failure partway
// through leaves the supplier's catalog partially written rather than
// restored. The run record reports exactly how far the insert got.
func (s *Service) runBatch(ctx context.Context, supplierID uuid.UUID, mapping FieldMapping, rows []Row, tracker *Tracker) (BatchResult, error) {
	result := BatchResult{Rejections: make(map[Reason]int)}

	accepted := make([]store.ProductInsert, 0, len(rows))
	for _, row := range rows {
		if IsBlankRow(row) {
			continue
		}
		result.TotalRows++

		record, reason := ValidateRow(mapping, row)
		if reason != "" {
			result.SkippedRows++
			result.Rejections[reason]++
			continue
		}
		accepted = append(accepted, store.ProductInsert{
			SupplierID: supplierID,
			SKU:        record.SKU,
			Name:       record.Name,
			PriceHT:    record.PriceHT,
			Stock:      record.Stock,
		})
	}

	if err := tracker.Progress(ctx, RunCounts{Total: result.TotalRows}); err != nil {
		return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	// Nothing to import and nothing to clear: skip the destructive write
	// entirely instead of issuing a no-op delete.
	if len(accepted) == 0 {
		existing, err := s.store.CountProductsBySupplier(ctx, supplierID)
		if err != nil {
			return result, fmt.Errorf("%w: count products: %v", ErrWriteFailure, err)
		}
		if existing == 0 {
			return result, nil
		}
	}

	if _, err := s.store.DeleteProductsBySupplier(ctx, supplierID); err != nil {
		return result, fmt.Errorf("%w: delete products: %v", ErrWriteFailure, err)
	}

	chunkSize := s.chunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	totalChunks := (len(accepted) + chunkSize - 1) / chunkSize
	for chunk := 0; chunk < totalChunks; chunk++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import canceled: %w", err)
		}

		startIdx := chunk * chunkSize
		endIdx := startIdx + chunkSize
		if endIdx > len(accepted) {
			endIdx = len(accepted)
		}

		if err := s.store.InsertProducts(ctx, accepted[startIdx:endIdx]); err != nil {
			return result, fmt.Errorf("%w: insert chunk %d/%d: %v", ErrWriteFailure, chunk+1, totalChunks, err)
		}
		result.ImportedRows = endIdx

		// One incremental update per chunk so a poller watching a large
		// file sees movement without waiting for completion.
		if err := tracker.Progress(ctx, RunCounts{
			Total:    result.TotalRows,
			Imported: result.ImportedRows,
			Skipped:  result.SkippedRows,
		}); err != nil {
			return result, fmt.Errorf("%w: %v", ErrWriteFailure, err)
		}
	}

	return result, nil
}
