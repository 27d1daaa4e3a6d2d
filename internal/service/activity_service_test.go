package service

import (
	"context"
	"strings"
	"testing"

	"streetwalk/internal/model"
	"streetwalk/internal/repository"
)

func TestActivityRecordAndStats(t *testing.T) {
	db := newServiceTestDB(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	alice := testUser(t, db, model.RoleUser)
	bob := testUser(t, db, model.RoleUser)
	admin := testUser(t, db, model.RoleAdmin)
	ctx := context.Background()

	events := []ActivityRequest{
		{EventType: model.EventStreetView, Mode: model.ModeWalk},
		{EventType: model.EventStreetView, Mode: model.ModeWalk},
		{EventType: model.EventWorldEnter, Mode: model.ModeFly},
	}
	for _, e := range events {
		if err := svc.Record(ctx, alice, e, "test-agent"); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if err := svc.Record(ctx, bob, ActivityRequest{EventType: model.EventStreetLike}, "test-agent"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	entries, total, err := svc.List(ctx, alice, 1, 20)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("expected alice's 3 events, got total=%d len=%d", total, len(entries))
	}

	stats, err := svc.Stats(ctx, alice)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	var aliceTotal int64
	for _, s := range stats {
		aliceTotal += s.Count
	}
	if aliceTotal != 3 {
		t.Errorf("user stats should only cover their own events, got %d", aliceTotal)
	}

	stats, err = svc.Stats(ctx, admin)
	if err != nil {
		t.Fatalf("admin Stats returned error: %v", err)
	}
	var globalTotal int64
	for _, s := range stats {
		globalTotal += s.Count
	}
	if globalTotal != 4 {
		t.Errorf("admin stats should be global, got %d", globalTotal)
	}
}

func TestActivityRecordSanitizesInput(t *testing.T) {
	db := newServiceTestDB(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	user := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	longAgent := strings.Repeat("x", model.MaxUserAgentLen+50)
	err := svc.Record(ctx, user, ActivityRequest{
		EventType: model.EventStreetView,
		StreetID:  "not-a-uuid",
		Mode:      "teleport",
		Extra:     map[string]interface{}{"duration_s": 12},
	}, longAgent)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	var entry model.ActivityLog
	if err := db.First(&entry, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry.StreetID != nil {
		t.Error("malformed street id should be dropped")
	}
	if entry.Mode != "" {
		t.Errorf("unknown mode should be dropped, got %q", entry.Mode)
	}
	if len(entry.UserAgent) != model.MaxUserAgentLen {
		t.Errorf("user agent should be truncated to %d, got %d", model.MaxUserAgentLen, len(entry.UserAgent))
	}
	if !strings.Contains(entry.Extra, "duration_s") {
		t.Errorf("extra payload should serialize, got %q", entry.Extra)
	}
}
