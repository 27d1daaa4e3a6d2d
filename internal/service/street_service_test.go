package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"streetwalk/internal/config"
	"streetwalk/internal/database"
	"streetwalk/internal/model"
	"streetwalk/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeUploader records uploads and hands back deterministic URLs.
type fakeUploader struct {
	uploads []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, folder, extension, _ string, _ io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := fmt.Sprintf("https://storage.test/%s/%d%s", folder, len(f.uploads), extension)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newStreetService(t *testing.T) (StreetService, *fakeUploader, *gorm.DB) {
	t.Helper()
	db := newServiceTestDB(t)
	uploader := &fakeUploader{}
	cfg := &config.Config{
		MaxVideoBytes:     200 << 20,
		MaxModelBytes:     50 << 20,
		MaxThumbnailBytes: 5 << 20,
	}
	return NewStreetService(repository.NewStreetRepository(db), uploader, cfg), uploader, db
}

func testUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{Name: "Tester", Email: uuid.NewString() + "@example.com", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestParseVideoLinks(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"https://a.test/1.mp4", []string{"https://a.test/1.mp4"}},
		{"https://a.test/1.mp4, https://a.test/2.mp4", []string{"https://a.test/1.mp4", "https://a.test/2.mp4"}},
		{"https://a.test/1.mp4\nhttps://a.test/2.mp4\r\n, ,", []string{"https://a.test/1.mp4", "https://a.test/2.mp4"}},
	}
	for _, tc := range cases {
		got := parseVideoLinks(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("parseVideoLinks(%q) = %v, want %v", tc.raw, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("parseVideoLinks(%q)[%d] = %q, want %q", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  hello  ", 10); got != "hello" {
		t.Errorf("truncate trims whitespace, got %q", got)
	}
	if got := truncate(strings.Repeat("a", 150), 120); len(got) != 120 {
		t.Errorf("expected 120 runes, got %d", len(got))
	}
	// Rune-safe, not byte-safe
	if got := truncate("ééééé", 3); got != "ééé" {
		t.Errorf("expected rune truncation, got %q", got)
	}
}

func TestCreateRejectsBadCoordinates(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	_, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type: model.StreetTypeVideo,
		Lat:  91,
		Lng:  0,
	})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}

	var count int64
	db.Model(&model.Street{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected create must not persist a street, found %d", count)
	}
}

func TestCreateVideoStreetFromLinks(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	street, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       "hovercraft",
		Name:       "Shibuya Crossing",
		Lat:        35.6595,
		Lng:        139.7004,
		VideoLinks: "https://a.test/1.mp4,https://a.test/2.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if street.Mode != model.ModeWalk {
		t.Errorf("unknown mode should fall back to walk, got %q", street.Mode)
	}
	if street.Status != model.StatusPublished {
		t.Errorf("new streets publish immediately, got %q", street.Status)
	}
	if len(street.Videos) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(street.Videos))
	}
	for i, v := range street.Videos {
		if v.Position != i {
			t.Errorf("clip %d has position %d", i, v.Position)
		}
	}
}

func TestCreateVideoStreetRequiresSource(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	_, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type: model.StreetTypeVideo,
		Lat:  10,
		Lng:  10,
	})
	if !errors.Is(err, ErrNoVideoSource) {
		t.Fatalf("expected ErrNoVideoSource, got %v", err)
	}
}

func TestCreateModelStreet(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	street, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type:      model.StreetType3D,
		Lat:       48.8584,
		Lng:       2.2945,
		ModelLink: "  https://models.test/tower.glb  ",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if street.GlbURL != "https://models.test/tower.glb" {
		t.Errorf("unexpected glb url %q", street.GlbURL)
	}

	_, err = svc.Create(context.Background(), owner, CreateStreetInput{
		Type: model.StreetType3D,
		Lat:  48.8584,
		Lng:  2.2945,
	})
	if !errors.Is(err, ErrNoModelSource) {
		t.Fatalf("expected ErrNoModelSource, got %v", err)
	}
}

func TestCreateVideoStreetFromFiles(t *testing.T) {
	svc, uploader, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type: model.StreetTypeVideo,
		Mode: model.ModeDrive,
		Lat:  1,
		Lng:  1,
		VideoFiles: []FileUpload{
			{Reader: strings.NewReader("clip"), Size: 4, Filename: "a.webm", ContentType: "video/webm"},
		},
		VideoLinks: "https://a.test/tail.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(uploader.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploader.uploads))
	}
	if len(street.Videos) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(street.Videos))
	}
	// Uploaded files come before pasted links
	if street.Videos[0].URL != uploader.uploads[0] {
		t.Errorf("expected uploaded file first, got %q", street.Videos[0].URL)
	}
	if street.Videos[1].URL != "https://a.test/tail.mp4" {
		t.Errorf("expected pasted link second, got %q", street.Videos[1].URL)
	}
}

func TestCreateEnforcesFileSizeLimit(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	_, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type: model.StreetTypeVideo,
		Lat:  1,
		Lng:  1,
		VideoFiles: []FileUpload{
			{Reader: strings.NewReader("x"), Size: 201 << 20, Filename: "big.mp4"},
		},
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestCreateSurfacesUploadFailure(t *testing.T) {
	svc, uploader, db := newStreetService(t)
	uploader.err = errors.New("bucket offline")
	owner := testUser(t, db, model.RoleUser)

	_, err := svc.Create(context.Background(), owner, CreateStreetInput{
		Type: model.StreetTypeVideo,
		Lat:  1,
		Lng:  1,
		VideoFiles: []FileUpload{
			{Reader: strings.NewReader("clip"), Size: 4, Filename: "a.mp4"},
		},
	})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)

	_, err := svc.Create(context.Background(), owner, CreateStreetInput{Type: "audio", Lat: 1, Lng: 1})
	if !errors.Is(err, ErrInvalidStreetType) {
		t.Fatalf("expected ErrInvalidStreetType, got %v", err)
	}
}

func TestUpdateOwnershipIsNotLeaked(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	stranger := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Name:       "Original",
		Lat:        1,
		Lng:        1,
		VideoLinks: "https://a.test/1.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	renamed := "Hijacked"
	_, err = svc.Update(ctx, stranger, street.ID.String(), UpdateStreetInput{Name: &renamed})
	if !errors.Is(err, ErrStreetNotFound) {
		t.Fatalf("non-owner edit should report not found, got %v", err)
	}

	var persisted model.Street
	if err := db.First(&persisted, "id = ?", street.ID).Error; err != nil {
		t.Fatalf("failed to reload street: %v", err)
	}
	if persisted.Name != "Original" {
		t.Errorf("non-owner edit changed the row, name=%q", persisted.Name)
	}

	if err := svc.Delete(ctx, stranger, street.ID.String()); !errors.Is(err, ErrStreetNotFound) {
		t.Errorf("non-owner delete should report not found, got %v", err)
	}
}

func TestUpdateByOwnerAndAdmin(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	admin := testUser(t, db, model.RoleAdmin)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Name:       "Before",
		Lat:        1,
		Lng:        1,
		VideoLinks: "https://a.test/1.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	newMode := model.ModeDrive
	updated, err := svc.Update(ctx, owner, street.ID.String(), UpdateStreetInput{Mode: &newMode})
	if err != nil {
		t.Fatalf("owner update returned error: %v", err)
	}
	if updated.Mode != model.ModeDrive {
		t.Errorf("expected mode drive, got %q", updated.Mode)
	}

	adminName := "After"
	updated, err = svc.Update(ctx, admin, street.ID.String(), UpdateStreetInput{Name: &adminName})
	if err != nil {
		t.Fatalf("admin update returned error: %v", err)
	}
	if updated.Name != "After" {
		t.Errorf("expected admin rename, got %q", updated.Name)
	}

	badLat := 123.0
	if _, err := svc.Update(ctx, owner, street.ID.String(), UpdateStreetInput{Lat: &badLat}); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestUpdateReplacesVideoSequence(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Lat:        1,
		Lng:        1,
		VideoLinks: "https://a.test/1.mp4,https://a.test/2.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	replacement := "https://a.test/solo.mp4"
	updated, err := svc.Update(ctx, owner, street.ID.String(), UpdateStreetInput{VideoLinks: &replacement})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Videos) != 1 || updated.Videos[0].URL != replacement {
		t.Fatalf("expected single replacement clip, got %+v", updated.Videos)
	}
}

func TestDeleteByOwner(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Lat:        1,
		Lng:        1,
		VideoLinks: "https://a.test/1.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, owner, street.ID.String()); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.GetPublished(ctx, street.ID.String()); !errors.Is(err, ErrStreetNotFound) {
		t.Errorf("deleted street still resolvable, err=%v", err)
	}
}

func TestLikeViaService(t *testing.T) {
	svc, _, db := newStreetService(t)
	owner := testUser(t, db, model.RoleUser)
	ctx := context.Background()

	street, err := svc.Create(ctx, owner, CreateStreetInput{
		Type:       model.StreetTypeVideo,
		Mode:       model.ModeWalk,
		Lat:        1,
		Lng:        1,
		VideoLinks: "https://a.test/1.mp4",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	likes, err := svc.Like(ctx, street.ID.String(), "s:abc")
	if err != nil {
		t.Fatalf("Like returned error: %v", err)
	}
	if likes != 1 {
		t.Errorf("expected 1 like, got %d", likes)
	}

	if _, err := svc.Like(ctx, "not-a-uuid", "s:abc"); !errors.Is(err, ErrStreetNotFound) {
		t.Errorf("malformed id should report not found, got %v", err)
	}
}
