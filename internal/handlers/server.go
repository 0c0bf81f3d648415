package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/audit"
	"github.com/stocklane-platform/api/internal/config"
	"github.com/stocklane-platform/api/internal/httpx"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/store"
)

type Server struct {
	Config config.Config
	Store  *store.Store
	Ingest *ingest.Service
	Audit  *audit.Logger
	Logger *slog.Logger
}

func NewServer(cfg config.Config, st *store.Store, ing *ingest.Service, auditLogger *audit.Logger, logger *slog.Logger) *Server {
	return &Server{Config: cfg, Store: st, Ingest: ing, Audit: auditLogger, Logger: logger}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type appError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// supplierIDParam parses the {supplierId} URL segment. A malformed value is a
// client error, not a lookup miss.
func supplierIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "supplierId")
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_supplier_id", "supplierId must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
