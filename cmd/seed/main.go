package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	supplierName := envOrDefault("SEED_SUPPLIER_NAME", "Demo Supplies SARL")
	contactEmail := envOrDefault("SEED_SUPPLIER_EMAIL", "catalog@demo-supplies.example")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	var supplierID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM suppliers WHERE name = $1
	`, supplierName).Scan(&supplierID)
	if err != nil {
		if err := tx.QueryRow(ctx, `
			INSERT INTO suppliers (name, contact_email, is_active)
			VALUES ($1, $2, TRUE)
			RETURNING id
		`, supplierName, contactEmail).Scan(&supplierID); err != nil {
			log.Fatalf("insert supplier: %v", err)
		}
	}

	mapping := map[string]string{
		"sku":      "Reference",
		"name":     "Designation",
		"price_ht": "Prix HT",
		"stock":    "Stock",
	}
	if _, err := tx.Exec(ctx, `DELETE FROM field_mappings WHERE supplier_id = $1`, supplierID); err != nil {
		log.Fatalf("clear field mappings: %v", err)
	}
	for targetField, sourceColumn := range mapping {
		if _, err := tx.Exec(ctx, `
			INSERT INTO field_mappings (supplier_id, source_column, target_field)
			VALUES ($1, $2, $3)
		`, supplierID, sourceColumn, targetField); err != nil {
			log.Fatalf("insert field mapping %s: %v", targetField, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}

	fmt.Printf("seeded supplier %s (%s) with a complete field mapping\n", supplierName, supplierID)
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
