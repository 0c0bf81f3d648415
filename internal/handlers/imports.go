package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/audit"
	"github.com/stocklane-platform/api/internal/csvfile"
	"github.com/stocklane-platform/api/internal/ftpsource"
	"github.com/stocklane-platform/api/internal/httpx"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/middleware"
	"github.com/stocklane-platform/api/internal/store"
)

var supportedCSVContentTypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
}

type importRunResponse struct {
	ID           uuid.UUID       `json:"id"`
	SupplierID   uuid.UUID       `json:"supplierId"`
	FileName     string          `json:"fileName"`
	Status       string          `json:"status"`
	TotalRows    int             `json:"totalRows"`
	ImportedRows int             `json:"importedRows"`
	SkippedRows  int             `json:"skippedRows"`
	ErrorDetails json.RawMessage `json:"errorDetails,omitempty"`
	StartedAt    time.Time       `json:"startedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

func mapImportRun(run store.ImportRun) importRunResponse {
	resp := importRunResponse{
		ID:           run.ID,
		SupplierID:   run.SupplierID,
		FileName:     run.FileName,
		Status:       run.Status,
		TotalRows:    run.TotalRows,
		ImportedRows: run.ImportedRows,
		SkippedRows:  run.SkippedRows,
		StartedAt:    run.StartedAt.UTC(),
	}
	if len(run.ErrorDetails) > 0 {
		resp.ErrorDetails = json.RawMessage(run.ErrorDetails)
	}
	if run.CompletedAt != nil {
		t := run.CompletedAt.UTC()
		resp.CompletedAt = &t
	}
	return resp
}

type parsedUpload struct {
	fileName string
	data     []byte
}

// parseImportUpload validates and reads the multipart CSV upload. Only .csv
// files are accepted; spreadsheet formats must be exported first.
func parseImportUpload(r *http.Request, maxFileBytes int64) (parsedUpload, *appError) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_content_type",
			Message: "Content-Type must be multipart/form-data",
		}
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_multipart",
			Message: "Failed to parse multipart form",
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "missing_file",
			Message: "file is required",
		}
	}
	defer file.Close()

	fileName := header.Filename
	ext := strings.ToLower(filepath.Ext(fileName))
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))

	switch ext {
	case ".csv":
		if contentType != "" {
			if _, ok := supportedCSVContentTypes[contentType]; !ok {
				return parsedUpload{}, &appError{
					Status:  http.StatusBadRequest,
					Code:    "invalid_content_type",
					Message: "Unsupported CSV content type",
					Details: map[string]any{"contentType": contentType},
				}
			}
		}
	case ".xlsx", ".xls":
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "xlsx_not_supported",
			Message: "Spreadsheet import is not supported. Please export and upload CSV.",
		}
	default:
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file_type",
			Message: "Only .csv uploads are supported",
		}
	}

	var reader io.Reader = file
	if maxFileBytes > 0 {
		reader = io.LimitReader(file, maxFileBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return parsedUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file",
			Message: "Failed to read uploaded file",
		}
	}
	if maxFileBytes > 0 && int64(len(data)) > maxFileBytes {
		return parsedUpload{}, &appError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "file_too_large",
			Message: "Uploaded file exceeds the size limit",
			Details: map[string]any{"maxBytes": maxFileBytes},
		}
	}

	return parsedUpload{fileName: fileName, data: data}, nil
}

// PostSupplierImport runs a full import from an uploaded CSV and responds with
// the terminal run record. Failed runs still come back as a run payload; only
// pre-run rejections (bad upload, missing supplier, lock contention) use the
// error envelope.
func (s *Server) PostSupplierImport(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	supplier, err := s.Store.GetSupplierByID(r.Context(), supplierID)
	if err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load supplier", nil)
		return
	}

	parsed, appErr := parseImportUpload(r, s.Config.ImportMaxFileBytes)
	if appErr != nil {
		httpx.WriteError(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}

	source := &csvfile.Source{
		FileName: parsed.fileName,
		Data:     parsed.data,
		MaxRows:  s.Config.ImportMaxRows,
	}
	s.runImport(w, r, supplier, parsed.fileName, source, "imports.upload")
}

// PostSupplierImportFTPRefresh pulls the supplier's configured FTP file and
// runs the same import pipeline the upload path uses.
func (s *Server) PostSupplierImportFTPRefresh(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	supplier, err := s.Store.GetSupplierByID(r.Context(), supplierID)
	if err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load supplier", nil)
		return
	}

	descriptor, err := ftpsource.FromSupplier(supplier)
	if err != nil {
		httpx.WriteError(w, r, http.StatusConflict, "ftp_not_configured", "Supplier has no FTP source configured", nil)
		return
	}

	source := &ftpsource.Source{
		Descriptor:  descriptor,
		DialTimeout: s.Config.FTPDialTimeout,
		ReadTimeout: s.Config.FTPReadTimeout,
		MaxRows:     s.Config.ImportMaxRows,
	}
	s.runImport(w, r, supplier, filepath.Base(descriptor.Path), source, "imports.ftp_refresh")
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, supplier store.Supplier, fileName string, source ingest.RowSource, action string) {
	supplierID := supplier.ID
	requestID := middleware.RequestIDFromContext(r.Context())

	run, err := s.Ingest.Run(r.Context(), supplierID, fileName, source)
	if errors.Is(err, ingest.ErrImportAlreadyRunning) {
		httpx.WriteError(w, r, http.StatusConflict, "import_already_running",
			"An import is already running for this supplier", nil)
		return
	}
	if err != nil && run.ID == uuid.Nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to start import", nil)
		return
	}

	runID := run.ID
	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     action,
		EntityType: "import_run",
		EntityID:   &runID,
		RequestID:  requestID,
		Metadata: map[string]any{
			"supplierId":   supplierID.String(),
			"fileName":     fileName,
			"status":       run.Status,
			"totalRows":    run.TotalRows,
			"importedRows": run.ImportedRows,
			"skippedRows":  run.SkippedRows,
		},
	})

	httpx.WriteJSON(w, http.StatusCreated, mapImportRun(run))
}

func (s *Server) GetImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	var (
		runs []store.ImportRun
		err  error
	)
	if raw := r.URL.Query().Get("supplierId"); raw != "" {
		supplierID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_supplier_id", "supplierId must be a valid UUID", nil)
			return
		}
		runs, err = s.Store.ListImportRunsBySupplier(r.Context(), supplierID, limit)
	} else {
		runs, err = s.Store.ListImportRuns(r.Context(), limit)
	}
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list import runs", nil)
		return
	}

	items := make([]importRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, mapImportRun(run))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"imports": items})
}

func (s *Server) GetImport(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "importId")
	importID, err := uuid.Parse(raw)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_import_id", "importId must be a valid UUID", nil)
		return
	}

	run, err := s.Store.GetImportRunByID(r.Context(), importID)
	if err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "import_not_found", "Import run was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load import run", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mapImportRun(run))
}
