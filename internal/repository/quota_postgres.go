package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientQuotaRepository struct {
	db *storage.Postgres
}

var _ ClientQuotaStore = (*ClientQuotaRepository)(nil)

func NewClientQuotaRepository(db *storage.Postgres) *ClientQuotaRepository {
	return &ClientQuotaRepository{db: db}
}

// Apply inserts the initial record if missing, then locks the row with
// SELECT ... FOR UPDATE so concurrent admissions for one client serialize.
func (r *ClientQuotaRepository) Apply(ctx context.Context, clientID string, now time.Time, fn ApplyFunc) (models.ClientQuotaRecord, error) {
	var result models.ClientQuotaRecord

	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		initial := models.NewClientQuotaRecord(clientID, now)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&initial).Error; err != nil {
			return fmt.Errorf("failed to create quota record: %w", err)
		}

		var rec models.ClientQuotaRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("client_id = ?", clientID).
			First(&rec).Error
		if err != nil {
			return fmt.Errorf("failed to lock quota record: %w", err)
		}

		if fn(&rec) {
			err := tx.Model(&rec).Updates(map[string]interface{}{
				"requests_made":   rec.RequestsMade,
				"last_request_at": rec.LastRequestAt,
				"tier":            rec.Tier,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to save quota record: %w", err)
			}
		}

		result = rec
		return nil
	})

	return result, err
}

func (r *ClientQuotaRepository) Get(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error) {
	var rec models.ClientQuotaRecord
	err := r.db.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *ClientQuotaRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.DB.WithContext(ctx).
		Where("last_request_at < ?", before).
		Delete(&models.ClientQuotaRecord{})

	return res.RowsAffected, res.Error
}

func (r *ClientQuotaRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
