package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stocklane-platform/api/internal/audit"
	"github.com/stocklane-platform/api/internal/httpx"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/middleware"
	"github.com/stocklane-platform/api/internal/store"
)

type mappingEntryPayload struct {
	SourceColumn string `json:"sourceColumn"`
	TargetField  string `json:"targetField"`
}

type putMappingRequest struct {
	Entries []mappingEntryPayload `json:"entries"`
}

type mappingResponse struct {
	Entries  []mappingEntryPayload `json:"entries"`
	Complete bool                  `json:"complete"`
	Missing  []string              `json:"missing,omitempty"`
}

func (s *Server) GetSupplierMapping(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	if _, err := s.Store.GetSupplierByID(r.Context(), supplierID); err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load supplier", nil)
		return
	}

	mappings, err := s.Store.ListFieldMappings(r.Context(), supplierID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load field mappings", nil)
		return
	}

	resp := mappingResponse{Entries: make([]mappingEntryPayload, 0, len(mappings))}
	for _, m := range mappings {
		resp.Entries = append(resp.Entries, mappingEntryPayload{
			SourceColumn: m.SourceColumn,
			TargetField:  m.TargetField,
		})
	}

	if _, err := ingest.NewFieldMapping(mappings); err != nil {
		var incomplete *ingest.MappingIncompleteError
		if errors.As(err, &incomplete) {
			resp.Missing = incomplete.Missing
		}
	} else {
		resp.Complete = true
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) PutSupplierMapping(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	if _, err := s.Store.GetSupplierByID(r.Context(), supplierID); err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load supplier", nil)
		return
	}

	var req putMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	entries := make([]store.FieldMappingEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, store.FieldMappingEntry{
			SourceColumn: entry.SourceColumn,
			TargetField:  entry.TargetField,
		})
	}

	if err := ingest.ValidateMappingEntries(entries); err != nil {
		var incomplete *ingest.MappingIncompleteError
		if errors.As(err, &incomplete) {
			httpx.WriteError(w, r, http.StatusUnprocessableEntity, "mapping_incomplete",
				"Mapping must cover all canonical fields",
				map[string]any{"missing": incomplete.Missing})
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if err := s.Ingest.ReplaceMapping(r.Context(), supplierID, entries); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save field mappings", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "mappings.replace",
		EntityType: "supplier",
		EntityID:   &supplierID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata:   map[string]any{"entries": len(entries)},
	})

	httpx.WriteJSON(w, http.StatusOK, mappingResponse{Entries: req.Entries, Complete: true})
}
