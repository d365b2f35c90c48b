package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationFailed    GenerationStatus = "failed"
)

// Represents one orchestration attempt
type GenerationRecord struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	RequestID  string           `gorm:"index" json:"request_id"`
	ClientID   string           `gorm:"index;not null" json:"client_id"`
	Prompt     string           `gorm:"type:text" json:"prompt"`
	Status     GenerationStatus `gorm:"size:16;index" json:"status"`
	FailedStep string           `json:"failed_step,omitempty"`
	ImageURL   string           `json:"image_url,omitempty"`
	DurationMs int              `json:"duration_ms"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}

func (g *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (GenerationRecord) TableName() string {
	return "generation_logs"
}
