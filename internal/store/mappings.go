package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FieldMapping struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	SourceColumn string
	TargetField  string
	CreatedAt    time.Time
}

type FieldMappingEntry struct {
	SourceColumn string
	TargetField  string
}

func (s *Store) ListFieldMappings(ctx context.Context, supplierID uuid.UUID) ([]FieldMapping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, supplier_id, source_column, target_field, created_at
		FROM field_mappings
		WHERE supplier_id = $1
		ORDER BY target_field ASC
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list field mappings: %w", err)
	}
	defer rows.Close()

	var mappings []FieldMapping
	for rows.Next() {
		var m FieldMapping
		if err := rows.Scan(&m.ID, &m.SupplierID, &m.SourceColumn, &m.TargetField, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// ReplaceFieldMappings swaps the supplier's mapping set in one transaction.
// A partial update could leave a stale column binding behind, so the old rows
// always go before the new ones are written.
func (s *Store) ReplaceFieldMappings(ctx context.Context, supplierID uuid.UUID, entries []FieldMappingEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM field_mappings WHERE supplier_id = $1`, supplierID); err != nil {
		return fmt.Errorf("delete field mappings: %w", err)
	}
	for _, entry := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO field_mappings (supplier_id, source_column, target_field)
			VALUES ($1, $2, $3)
		`, supplierID, entry.SourceColumn, entry.TargetField); err != nil {
			return fmt.Errorf("insert field mapping %s: %w", entry.TargetField, err)
		}
	}

	return tx.Commit(ctx)
}
