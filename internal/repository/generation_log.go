package repository

import (
	"context"

	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/storage"
)

type GenerationLogRepository struct {
	db *storage.Postgres
}

func NewGenerationLogRepository(db *storage.Postgres) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Inserts multiple generation records (for batch insertion)
func (r *GenerationLogRepository) CreateBatch(ctx context.Context, records []models.GenerationRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&records).Error
}

// Retrieves the most recent attempts for one client
func (r *GenerationLogRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]models.GenerationRecord, error) {
	var records []models.GenerationRecord
	err := r.db.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error

	return records, err
}
