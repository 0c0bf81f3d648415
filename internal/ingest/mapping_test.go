package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/store"
)

func TestNewFieldMappingReportsMissingFields(t *testing.T) {
	_, err := NewFieldMapping([]store.FieldMapping{
		{SourceColumn: "Reference", TargetField: FieldSKU},
		{SourceColumn: "Designation", TargetField: FieldName},
	})

	var incomplete *MappingIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected MappingIncompleteError, got %v", err)
	}
	sort.Strings(incomplete.Missing)
	if len(incomplete.Missing) != 2 || incomplete.Missing[0] != FieldPriceHT || incomplete.Missing[1] != FieldStock {
		t.Fatalf("missing = %v, want [price_ht stock]", incomplete.Missing)
	}
	if !IsMappingIncomplete(err) {
		t.Fatal("IsMappingIncomplete should report true")
	}
}

func TestNewFieldMappingIgnoresUnknownTargets(t *testing.T) {
	mapping, err := NewFieldMapping([]store.FieldMapping{
		{SourceColumn: "Reference", TargetField: FieldSKU},
		{SourceColumn: "Designation", TargetField: FieldName},
		{SourceColumn: "Prix HT", TargetField: FieldPriceHT},
		{SourceColumn: "Stock", TargetField: FieldStock},
		{SourceColumn: "EAN", TargetField: "barcode"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping.Source(FieldSKU) != "Reference" {
		t.Fatalf("sku source = %q, want Reference", mapping.Source(FieldSKU))
	}
	if mapping.Source("barcode") != "" {
		t.Fatal("unknown target must not be resolvable")
	}
}

func TestReplaceMappingDiscardsPriorEntries(t *testing.T) {
	supplierID := uuid.New()
	fs := newFakeStore(completeMappings(supplierID))
	svc := New(fs, NewMemoryLocker(), testLogger())

	replacement := []store.FieldMappingEntry{
		{SourceColumn: "Item Code", TargetField: FieldSKU},
		{SourceColumn: "Item Name", TargetField: FieldName},
		{SourceColumn: "Unit Price", TargetField: FieldPriceHT},
		{SourceColumn: "Qty", TargetField: FieldStock},
	}
	if err := svc.ReplaceMapping(context.Background(), supplierID, replacement); err != nil {
		t.Fatalf("replace mapping: %v", err)
	}

	stored, err := fs.ListFieldMappings(context.Background(), supplierID)
	if err != nil {
		t.Fatalf("list mappings: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("stored entries = %d, want exactly the new 4", len(stored))
	}
	sources := make(map[string]string, len(stored))
	for _, m := range stored {
		sources[m.TargetField] = m.SourceColumn
	}
	for _, want := range replacement {
		if sources[want.TargetField] != want.SourceColumn {
			t.Fatalf("%s source = %q, want %q", want.TargetField, sources[want.TargetField], want.SourceColumn)
		}
	}
	for _, m := range stored {
		if m.SourceColumn == "Reference" || m.SourceColumn == "Designation" {
			t.Fatalf("old entry %q survived the replacement", m.SourceColumn)
		}
	}

	// An incomplete replacement is rejected before touching the store.
	err = svc.ReplaceMapping(context.Background(), supplierID, replacement[:2])
	if !IsMappingIncomplete(err) {
		t.Fatalf("expected incomplete mapping error, got %v", err)
	}
	stored, _ = fs.ListFieldMappings(context.Background(), supplierID)
	if len(stored) != 4 {
		t.Fatalf("rejected replacement must leave the mapping intact, got %d entries", len(stored))
	}
}

func TestValidateMappingEntries(t *testing.T) {
	complete := []store.FieldMappingEntry{
		{SourceColumn: "Reference", TargetField: FieldSKU},
		{SourceColumn: "Designation", TargetField: FieldName},
		{SourceColumn: "Prix HT", TargetField: FieldPriceHT},
		{SourceColumn: "Stock", TargetField: FieldStock},
	}
	if err := ValidateMappingEntries(complete); err != nil {
		t.Fatalf("complete mapping rejected: %v", err)
	}

	t.Run("unknown target", func(t *testing.T) {
		entries := append([]store.FieldMappingEntry{}, complete...)
		entries = append(entries, store.FieldMappingEntry{SourceColumn: "EAN", TargetField: "barcode"})
		err := ValidateMappingEntries(entries)
		if err == nil || !strings.Contains(err.Error(), "unknown target field") {
			t.Fatalf("expected unknown target error, got %v", err)
		}
	})

	t.Run("duplicate target", func(t *testing.T) {
		entries := append([]store.FieldMappingEntry{}, complete...)
		entries = append(entries, store.FieldMappingEntry{SourceColumn: "Ref2", TargetField: FieldSKU})
		err := ValidateMappingEntries(entries)
		if err == nil || !strings.Contains(err.Error(), "duplicate target field") {
			t.Fatalf("expected duplicate target error, got %v", err)
		}
	})

	t.Run("empty source column", func(t *testing.T) {
		entries := []store.FieldMappingEntry{
			{SourceColumn: "", TargetField: FieldSKU},
			{SourceColumn: "Designation", TargetField: FieldName},
			{SourceColumn: "Prix HT", TargetField: FieldPriceHT},
			{SourceColumn: "Stock", TargetField: FieldStock},
		}
		err := ValidateMappingEntries(entries)
		if err == nil || !strings.Contains(err.Error(), "empty source column") {
			t.Fatalf("expected empty source error, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		err := ValidateMappingEntries(complete[:2])
		if !IsMappingIncomplete(err) {
			t.Fatalf("expected incomplete mapping error, got %v", err)
		}
	})
}
