package models

import (
	"time"
)

// ClientQuotaRecord tracks admitted requests for one client identifier.
type ClientQuotaRecord struct {
	ClientID      string    `gorm:"primaryKey;size:255" json:"client_id"`
	LastRequestAt time.Time `gorm:"index;not null" json:"last_request_at"`
	RequestsMade  int       `gorm:"not null;default:0" json:"requests_made"`
	Tier          Tier      `gorm:"size:16;not null;default:'free'" json:"tier"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewClientQuotaRecord returns the record a never-seen client starts with.
func NewClientQuotaRecord(clientID string, now time.Time) ClientQuotaRecord {
	return ClientQuotaRecord{
		ClientID:      clientID,
		LastRequestAt: now,
		RequestsMade:  0,
		Tier:          TierFree,
	}
}

func (ClientQuotaRecord) TableName() string {
	return "client_quotas"
}
