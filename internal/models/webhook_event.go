package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// WebhookEvent keeps a verbatim audit trail of every inbound gateway
// callback, regardless of how processing went.
type WebhookEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Gateway    string          `gorm:"type:varchar(50);not null" json:"gateway"`
	ExternalID string          `gorm:"type:varchar(100);index" json:"external_id"`
	Status     string          `gorm:"type:varchar(50)" json:"status"`
	Outcome    string          `gorm:"type:varchar(50)" json:"outcome"`
	Payload    json.RawMessage `gorm:"type:jsonb" json:"payload"`
}
