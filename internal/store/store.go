package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx pool with typed queries over the application's tables.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
