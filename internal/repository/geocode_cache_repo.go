package repository

import (
	"context"
	"errors"
	"time"

	"streetwalk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GeocodeCacheRepository maps a normalized place-name query to a cached
// geocoding result with time-based expiry.
type GeocodeCacheRepository interface {
	// Lookup returns the cached entry for a normalized query, or nil if the
	// query has never been resolved or its entry has expired.
	Lookup(ctx context.Context, query string) (*model.GeocodeCacheEntry, error)
	// Store upserts an entry under the normalized query with the given TTL.
	Store(ctx context.Context, entry *model.GeocodeCacheEntry, ttl time.Duration) error
}

type geocodeCacheRepository struct {
	db *gorm.DB
}

// NewGeocodeCacheRepository returns a new instance of GeocodeCacheRepository
func NewGeocodeCacheRepository(db *gorm.DB) GeocodeCacheRepository {
	return &geocodeCacheRepository{db: db}
}

func (r *geocodeCacheRepository) Lookup(ctx context.Context, query string) (*model.GeocodeCacheEntry, error) {
	var entry model.GeocodeCacheEntry
	err := r.db.WithContext(ctx).First(&entry, "query = ?", query).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Expiry is delegated to a store-level purge; still treat a stale row as
	// absent in case the purge has not run yet.
	if time.Now().After(entry.ExpiresAt) {
		return nil, nil
	}
	return &entry, nil
}

func (r *geocodeCacheRepository) Store(ctx context.Context, entry *model.GeocodeCacheEntry, ttl time.Duration) error {
	entry.ExpiresAt = time.Now().Add(ttl)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"found", "lat", "lng", "display_name", "expires_at", "updated_at",
		}),
	}).Create(entry).Error
}
