package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Supplier struct {
	ID           uuid.UUID
	Name         string
	ContactEmail *string
	FTPHost      *string
	FTPUsername  *string
	FTPPassword  *string
	FTPPath      *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasFTPSource reports whether the supplier carries a complete file-source
// descriptor. Presence selects the FTP ingestion path over manual upload.
func (s Supplier) HasFTPSource() bool {
	return s.FTPHost != nil && *s.FTPHost != "" && s.FTPPath != nil && *s.FTPPath != ""
}

type CreateSupplierParams struct {
	Name         string
	ContactEmail *string
	FTPHost      *string
	FTPUsername  *string
	FTPPassword  *string
	FTPPath      *string
	IsActive     bool
}

const supplierColumns = `id, name, contact_email, ftp_host, ftp_username, ftp_password, ftp_path, is_active, created_at, updated_at`

func (s *Store) CreateSupplier(ctx context.Context, params CreateSupplierParams) (Supplier, error) {
	var supplier Supplier
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_email, ftp_host, ftp_username, ftp_password, ftp_path, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+supplierColumns,
		params.Name, params.ContactEmail, params.FTPHost, params.FTPUsername, params.FTPPassword, params.FTPPath, params.IsActive,
	).Scan(
		&supplier.ID, &supplier.Name, &supplier.ContactEmail,
		&supplier.FTPHost, &supplier.FTPUsername, &supplier.FTPPassword, &supplier.FTPPath,
		&supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		return Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	return supplier, nil
}

func (s *Store) GetSupplierByID(ctx context.Context, id uuid.UUID) (Supplier, error) {
	var supplier Supplier
	err := s.pool.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE id = $1
	`, id).Scan(
		&supplier.ID, &supplier.Name, &supplier.ContactEmail,
		&supplier.FTPHost, &supplier.FTPUsername, &supplier.FTPPassword, &supplier.FTPPath,
		&supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var supplier Supplier
		if err := rows.Scan(
			&supplier.ID, &supplier.Name, &supplier.ContactEmail,
			&supplier.FTPHost, &supplier.FTPUsername, &supplier.FTPPassword, &supplier.FTPPath,
			&supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

type UpdateSupplierParams struct {
	Name         *string
	ContactEmail *string
	FTPHost      *string
	FTPUsername  *string
	FTPPassword  *string
	FTPPath      *string
	IsActive     *bool
}

func (s *Store) UpdateSupplier(ctx context.Context, id uuid.UUID, params UpdateSupplierParams) (Supplier, error) {
	var supplier Supplier
	err := s.pool.QueryRow(ctx, `
		UPDATE suppliers SET
			name = COALESCE($2, name),
			contact_email = COALESCE($3, contact_email),
			ftp_host = COALESCE($4, ftp_host),
			ftp_username = COALESCE($5, ftp_username),
			ftp_password = COALESCE($6, ftp_password),
			ftp_path = COALESCE($7, ftp_path),
			is_active = COALESCE($8, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING `+supplierColumns,
		id, params.Name, params.ContactEmail, params.FTPHost, params.FTPUsername, params.FTPPassword, params.FTPPath, params.IsActive,
	).Scan(
		&supplier.ID, &supplier.Name, &supplier.ContactEmail,
		&supplier.FTPHost, &supplier.FTPUsername, &supplier.FTPPassword, &supplier.FTPPath,
		&supplier.IsActive, &supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

// DeleteSupplier removes the supplier; mappings, products, and import runs go
// with it via ON DELETE CASCADE.
func (s *Store) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
