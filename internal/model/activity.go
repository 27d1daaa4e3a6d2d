package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event type constants recorded by the activity log
const (
	EventStreetView   = "STREET_VIEW"
	EventWorldEnter   = "WORLD_ENTER"
	EventStreetLike   = "STREET_LIKE"
	EventStreetUpload = "STREET_UPLOAD"
	EventTripPrice    = "TRIP_PRICE"
)

// MaxUserAgentLen caps the stored user-agent string.
const MaxUserAgentLen = 256

// ActivityLog tracks who did what and when, feeding dashboard analytics.
// Append-only.
type ActivityLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	StreetID  *uuid.UUID `gorm:"type:uuid;index" json:"street_id,omitempty"`
	EventType string     `gorm:"type:varchar(50);not null;index" json:"event_type"`
	Mode      string     `gorm:"type:varchar(10)" json:"mode,omitempty"`
	UserAgent string     `gorm:"type:varchar(256)" json:"user_agent,omitempty"`
	Extra     string     `gorm:"type:jsonb" json:"extra,omitempty"` // serialized free-form payload
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
