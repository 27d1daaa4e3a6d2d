package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeocodeCacheEntry caches one resolved place-name query. A row with
// Found=false is a cached "no result" and short-circuits external calls
// until its (shorter) TTL lapses; that state is distinct from the row being
// absent entirely.
type GeocodeCacheEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Query       string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"q"` // trimmed, lower-cased
	Found       bool      `gorm:"not null" json:"found"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	DisplayName string    `gorm:"type:text" json:"display_name"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *GeocodeCacheEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
