package repository

import (
	"context"

	"streetwalk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventCount is one aggregation row for the dashboard analytics.
type EventCount struct {
	EventType string `json:"event_type"`
	Mode      string `json:"mode"`
	Count     int64  `json:"count"`
}

// ActivityRepository is an append-only store of activity log entries.
type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error)
	CountByEvent(ctx context.Context, userID *uuid.UUID) ([]EventCount, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository returns a new instance of ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error) {
	var entries []model.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// CountByEvent groups entries by event type and mode. A nil userID
// aggregates across all users (admin view).
func (r *activityRepository) CountByEvent(ctx context.Context, userID *uuid.UUID) ([]EventCount, error) {
	var counts []EventCount

	query := r.db.WithContext(ctx).Model(&model.ActivityLog{}).
		Select("event_type, mode, count(*) as count").
		Group("event_type, mode").
		Order("count DESC")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	if err := query.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
