package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Product struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	SKU        string
	Name       string
	PriceHT    float64
	Stock      int
	CreatedAt  time.Time
}

type ProductInsert struct {
	SupplierID uuid.UUID
	SKU        string
	Name       string
	PriceHT    float64
	Stock      int
}

func (s *Store) CountProductsBySupplier(ctx context.Context, supplierID uuid.UUID) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products WHERE supplier_id = $1
	`, supplierID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteProductsBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE supplier_id = $1`, supplierID)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertProducts writes one chunk of accepted records with COPY, the pgx bulk
// path. Chunk sizing is the caller's concern.
func (s *Store) InsertProducts(ctx context.Context, products []ProductInsert) error {
	if len(products) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.SupplierID, p.SKU, p.Name, p.PriceHT, p.Stock})
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"products"},
		[]string{"supplier_id", "sku", "name", "price_ht", "stock"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}
	return nil
}

func (s *Store) ListProductsBySupplier(ctx context.Context, supplierID uuid.UUID) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, supplier_id, sku, name, price_ht, stock, created_at
		FROM products
		WHERE supplier_id = $1
		ORDER BY sku ASC
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.SKU, &p.Name, &p.PriceHT, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
