package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stocklane-platform/api/internal/audit"
	"github.com/stocklane-platform/api/internal/httpx"
	"github.com/stocklane-platform/api/internal/middleware"
	"github.com/stocklane-platform/api/internal/store"
)

type supplierFTPPayload struct {
	Host     *string `json:"host"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Path     *string `json:"path"`
}

type createSupplierRequest struct {
	Name         string              `json:"name"`
	ContactEmail *string             `json:"contactEmail"`
	FTP          *supplierFTPPayload `json:"ftp"`
	IsActive     *bool               `json:"isActive"`
}

type updateSupplierRequest struct {
	Name         *string             `json:"name"`
	ContactEmail *string             `json:"contactEmail"`
	FTP          *supplierFTPPayload `json:"ftp"`
	IsActive     *bool               `json:"isActive"`
}

type supplierResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactEmail  *string   `json:"contactEmail"`
	FTPHost       *string   `json:"ftpHost"`
	FTPUsername   *string   `json:"ftpUsername"`
	FTPPath       *string   `json:"ftpPath"`
	FTPConfigured bool      `json:"ftpConfigured"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// mapSupplier shapes the API view of a supplier. The FTP password never
// leaves the server; clients only learn whether a source is configured.
func mapSupplier(supplier store.Supplier) supplierResponse {
	return supplierResponse{
		ID:            supplier.ID,
		Name:          supplier.Name,
		ContactEmail:  supplier.ContactEmail,
		FTPHost:       supplier.FTPHost,
		FTPUsername:   supplier.FTPUsername,
		FTPPath:       supplier.FTPPath,
		FTPConfigured: supplier.HasFTPSource(),
		IsActive:      supplier.IsActive,
		CreatedAt:     supplier.CreatedAt.UTC(),
		UpdatedAt:     supplier.UpdatedAt.UTC(),
	}
}

func (s *Server) PostSuppliers(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	params := store.CreateSupplierParams{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	if req.FTP != nil {
		params.FTPHost = req.FTP.Host
		params.FTPUsername = req.FTP.Username
		params.FTPPassword = req.FTP.Password
		params.FTPPath = req.FTP.Path
	}

	supplier, err := s.Store.CreateSupplier(r.Context(), params)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to create supplier", nil)
		return
	}

	supplierID := supplier.ID
	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "suppliers.create",
		EntityType: "supplier",
		EntityID:   &supplierID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	httpx.WriteJSON(w, http.StatusCreated, mapSupplier(supplier))
}

func (s *Server) GetSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.Store.ListSuppliers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list suppliers", nil)
		return
	}

	items := make([]supplierResponse, 0, len(suppliers))
	for _, supplier := range suppliers {
		items = append(items, mapSupplier(supplier))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"suppliers": items})
}

func (s *Server) GetSupplier(w http.ResponseWriter, r *http.Request) {
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

	httpx.WriteJSON(w, http.StatusOK, mapSupplier(supplier))
}

func (s *Server) PatchSupplier(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	var req updateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if req.Name != nil && *req.Name == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "name must not be empty", nil)
		return
	}

	params := store.UpdateSupplierParams{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		IsActive:     req.IsActive,
	}
	if req.FTP != nil {
		params.FTPHost = req.FTP.Host
		params.FTPUsername = req.FTP.Username
		params.FTPPassword = req.FTP.Password
		params.FTPPath = req.FTP.Path
	}

	supplier, err := s.Store.UpdateSupplier(r.Context(), supplierID, params)
	if err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to update supplier", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "suppliers.update",
		EntityType: "supplier",
		EntityID:   &supplierID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	httpx.WriteJSON(w, http.StatusOK, mapSupplier(supplier))
}

func (s *Server) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := supplierIDParam(w, r)
	if !ok {
		return
	}

	if err := s.Store.DeleteSupplier(r.Context(), supplierID); err != nil {
		if store.IsNotFound(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "supplier_not_found", "Supplier was not found", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to delete supplier", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "suppliers.delete",
		EntityType: "supplier",
		EntityID:   &supplierID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	w.WriteHeader(http.StatusNoContent)
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	PriceHT   float64   `json:"priceHt"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) GetSupplierProducts(w http.ResponseWriter, r *http.Request) {
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

	products, err := s.Store.ListProductsBySupplier(r.Context(), supplierID)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to list products", nil)
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, productResponse{
			ID:        p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			PriceHT:   p.PriceHT,
			Stock:     p.Stock,
			CreatedAt: p.CreatedAt.UTC(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": items})
}
