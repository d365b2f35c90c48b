package repository

import (
	"context"
	"sync"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
)

type MemoryClientQuotaRepository struct {
	mu      sync.Mutex
	records map[string]models.ClientQuotaRecord
}

var _ ClientQuotaStore = (*MemoryClientQuotaRepository)(nil)

func NewMemoryClientQuotaRepository() *MemoryClientQuotaRepository {
	return &MemoryClientQuotaRepository{
		records: make(map[string]models.ClientQuotaRecord),
	}
}

func (r *MemoryClientQuotaRepository) Apply(_ context.Context, clientID string, now time.Time, fn ApplyFunc) (models.ClientQuotaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[clientID]
	if !exists {
		rec = models.NewClientQuotaRecord(clientID, now)
		rec.CreatedAt = now
	}

	if fn(&rec) || !exists {
		rec.UpdatedAt = now
		r.records[clientID] = rec
	}

	return rec, nil
}

func (r *MemoryClientQuotaRepository) Get(_ context.Context, clientID string) (*models.ClientQuotaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[clientID]
	if !exists {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemoryClientQuotaRepository) DeleteStale(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.LastRequestAt.Before(before) {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryClientQuotaRepository) Ping(context.Context) error {
	return nil
}
