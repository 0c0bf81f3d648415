package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/store"
)

const (
	FieldSKU     = "sku"
	FieldName    = "name"
	FieldPriceHT = "price_ht"
	FieldStock   = "stock"
)

// CanonicalFields are the four product attributes every supplier mapping must
// resolve before an import may run.
var CanonicalFields = []string{FieldSKU, FieldName, FieldPriceHT, FieldStock}

// FieldMapping binds each canonical field to the supplier's source column.
type FieldMapping struct {
	columns map[string]string
}

// NewFieldMapping builds a mapping from stored entries and verifies it is
// complete. Unknown target fields are ignored rather than rejected: they can
// only exist if written around the API, and a stale extra binding must not
// block imports that have all four canonical fields.
func NewFieldMapping(entries []store.FieldMapping) (FieldMapping, error) {
	columns := make(map[string]string, len(CanonicalFields))
	for _, entry := range entries {
		if entry.SourceColumn == "" {
			continue
		}
		columns[entry.TargetField] = entry.SourceColumn
	}

	var missing []string
	for _, field := range CanonicalFields {
		if columns[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return FieldMapping{}, &MappingIncompleteError{Missing: missing}
	}

	return FieldMapping{columns: columns}, nil
}

// Source returns the source column bound to a canonical field.
func (m FieldMapping) Source(field string) string {
	return m.columns[field]
}

// ValidateMappingEntries checks a replacement mapping set before it is
// persisted: every canonical field exactly once, no unknown targets, no empty
// source columns.
func ValidateMappingEntries(entries []store.FieldMappingEntry) error {
	known := make(map[string]bool, len(CanonicalFields))
	for _, field := range CanonicalFields {
		known[field] = true
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !known[entry.TargetField] {
			return fmt.Errorf("unknown target field %q", entry.TargetField)
		}
		if seen[entry.TargetField] {
			return fmt.Errorf("duplicate target field %q", entry.TargetField)
		}
		if entry.SourceColumn == "" {
			return fmt.Errorf("empty source column for target field %q", entry.TargetField)
		}
		seen[entry.TargetField] = true
	}

	var missing []string
	for _, field := range CanonicalFields {
		if !seen[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MappingIncompleteError{Missing: missing}
	}
	return nil
}

// ResolveMapping loads and validates the supplier's current mapping.
func (s *Service) ResolveMapping(ctx context.Context, supplierID uuid.UUID) (FieldMapping, error) {
	entries, err := s.store.ListFieldMappings(ctx, supplierID)
	if err != nil {
		return FieldMapping{}, fmt.Errorf("load field mappings: %w", err)
	}
	return NewFieldMapping(entries)
}

// ReplaceMapping atomically swaps the supplier's mapping set. Old entries are
// removed and the new four written in one transaction; there is no merge.
func (s *Service) ReplaceMapping(ctx context.Context, supplierID uuid.UUID, entries []store.FieldMappingEntry) error {
	if err := ValidateMappingEntries(entries); err != nil {
		return err
	}
	if err := s.store.ReplaceFieldMappings(ctx, supplierID, entries); err != nil {
		return fmt.Errorf("replace field mappings: %w", err)
	}
	return nil
}
