package repository

import (
	"context"
	"sync"

	"github.com/moltid/authcore/internal/revocation/domain"
)

// MemoryRevocationRepository is an in-process revocation store. Reads vastly
// outnumber writes on the validation path, so it uses a read-write lock;
// writes are atomic with respect to concurrent reads of the same subject.
type MemoryRevocationRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
}

// NewMemoryRevocationRepository creates an empty in-memory store.
func NewMemoryRevocationRepository() *MemoryRevocationRepository {
	return &MemoryRevocationRepository{
		records: make(map[string]*domain.Record),
	}
}

// Create appends a record. The first record for a subject wins; revocations
// are never replaced or removed.
func (r *MemoryRevocationRepository) Create(_ context.Context, record *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.SubjectID]; !ok {
		r.records[record.SubjectID] = record
	}
	return nil
}

// Get retrieves the record for a subject id.
func (r *MemoryRevocationRepository) Get(_ context.Context, subjectID string) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[subjectID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

// Exists reports whether a record exists for the subject id.
func (r *MemoryRevocationRepository) Exists(_ context.Context, subjectID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[subjectID]
	return ok, nil
}
