package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SupplierLocker serializes imports per supplier: at most one active run may
// hold a supplier's lock. TryLock fails fast instead of queuing.
type SupplierLocker interface {
	TryLock(ctx context.Context, supplierID uuid.UUID) (release func(), err error)
}

// MemoryLocker is the in-process locker used when the API runs as a single
// replica.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[uuid.UUID]struct{})}
}

func (l *MemoryLocker) TryLock(_ context.Context, supplierID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[supplierID]; taken {
		return nil, ErrImportAlreadyRunning
	}
	l.held[supplierID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, supplierID)
			l.mu.Unlock()
		})
	}
	return release, nil
}
