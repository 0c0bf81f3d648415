package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/stocklane-platform/api/internal/audit"
	"github.com/stocklane-platform/api/internal/config"
	"github.com/stocklane-platform/api/internal/handlers"
	"github.com/stocklane-platform/api/internal/httpx"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/middleware"
	"github.com/stocklane-platform/api/internal/store"
)

func NewRouter(cfg config.Config, st *store.Store, ing *ingest.Service, logger *slog.Logger) (http.Handler, error) {
	specPath := filepath.Join("openapi.yaml")
	if _, err := os.Stat(specPath); err != nil {
		specPath = filepath.Join("..", "..", "openapi.yaml")
	}
	if _, err := os.Stat(specPath); err != nil {
		return nil, fmt.Errorf("openapi spec not found: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/suppliers", MaxBytes: cfg.ImportMaxFileBytes},
	}))

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			requestID := w.Header().Get("X-Request-Id")
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: requestID,
			})
		},
	}))

	auditLogger := audit.NewLogger(st)
	h := handlers.NewServer(cfg, st, ing, auditLogger, logger)

	importLimiter := middleware.NewIPRateLimiterWithMaxEntries(30, time.Minute, cfg.RateLimitMaxIPs)

	api.Get("/health", h.GetHealth)

	api.Get("/suppliers", h.GetSuppliers)
	api.Post("/suppliers", h.PostSuppliers)
	api.Get("/suppliers/{supplierId}", h.GetSupplier)
	api.Patch("/suppliers/{supplierId}", h.PatchSupplier)
	api.Delete("/suppliers/{supplierId}", h.DeleteSupplier)

	api.Get("/suppliers/{supplierId}/mapping", h.GetSupplierMapping)
	api.Put("/suppliers/{supplierId}/mapping", h.PutSupplierMapping)

	api.Get("/suppliers/{supplierId}/products", h.GetSupplierProducts)

	api.With(importLimiter.Middleware("Too many import requests")).
		Post("/suppliers/{supplierId}/imports", h.PostSupplierImport)
	api.With(importLimiter.Middleware("Too many import requests")).
		Post("/suppliers/{supplierId}/imports/ftp-refresh", h.PostSupplierImportFTPRefresh)

	api.Get("/imports", h.GetImports)
	api.Get("/imports/{importId}", h.GetImport)

	r.Mount("/api", api)
	return r, nil
}
