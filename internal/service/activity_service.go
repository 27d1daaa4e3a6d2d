package service

import (
	"context"
	"encoding/json"

	"streetwalk/internal/model"
	"streetwalk/internal/repository"

	"github.com/google/uuid"
)

// ActivityRequest is the fire-and-forget payload from POST /api/activity.
type ActivityRequest struct {
	EventType string                 `json:"event_type" binding:"required"`
	StreetID  string                 `json:"street_id"`
	Mode      string                 `json:"mode"`
	Extra     map[string]interface{} `json:"extra"`
}

// ActivityService records viewer events and aggregates them for dashboards.
type ActivityService interface {
	Record(ctx context.Context, user *model.User, req ActivityRequest, userAgent string) error
	List(ctx context.Context, user *model.User, page, limit int) ([]model.ActivityLog, int64, error)
	Stats(ctx context.Context, user *model.User) ([]repository.EventCount, error)
}

type activityService struct {
	activities repository.ActivityRepository
}

// NewActivityService returns a new instance of ActivityService
func NewActivityService(activities repository.ActivityRepository) ActivityService {
	return &activityService{activities: activities}
}

func (s *activityService) Record(ctx context.Context, user *model.User, req ActivityRequest, userAgent string) error {
	entry := &model.ActivityLog{
		UserID:    user.ID,
		EventType: req.EventType,
	}

	// A malformed street id just drops the reference; the event still logs
	if req.StreetID != "" {
		if streetID, err := uuid.Parse(req.StreetID); err == nil {
			entry.StreetID = &streetID
		}
	}
	if model.ValidMode(req.Mode) {
		entry.Mode = req.Mode
	}
	if len(userAgent) > model.MaxUserAgentLen {
		userAgent = userAgent[:model.MaxUserAgentLen]
	}
	entry.UserAgent = userAgent

	if len(req.Extra) > 0 {
		if raw, err := json.Marshal(req.Extra); err == nil {
			entry.Extra = string(raw)
		}
	}

	return s.activities.Create(ctx, entry)
}

func (s *activityService) List(ctx context.Context, user *model.User, page, limit int) ([]model.ActivityLog, int64, error) {
	return s.activities.ListByUser(ctx, user.ID, page, limit)
}

// Stats aggregates event counts: admins see the global picture, everyone
// else only their own events.
func (s *activityService) Stats(ctx context.Context, user *model.User) ([]repository.EventCount, error) {
	if user.IsAdmin() {
		return s.activities.CountByEvent(ctx, nil)
	}
	return s.activities.CountByEvent(ctx, &user.ID)
}
