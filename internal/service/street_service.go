package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"streetwalk/internal/config"
	"streetwalk/internal/model"
	"streetwalk/internal/repository"
	"streetwalk/internal/storage"

	"github.com/google/uuid"
)

// Field truncation limits
const (
	maxNameLen        = 120
	maxDescriptionLen = 500
	maxCategoryLen    = 80
)

var (
	ErrStreetNotFound     = errors.New("street not found")
	ErrInvalidCoordinates = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
	ErrInvalidStreetType  = errors.New("street type must be video or 3d")
	ErrNoVideoSource      = errors.New("upload a video file or paste at least one video link")
	ErrNoModelSource      = errors.New("upload a GLB file or paste a model link")
	ErrFileTooLarge       = errors.New("file exceeds the size limit")
	ErrUploadFailed       = errors.New("file upload failed")
)

// FileUpload is one multipart file handed through to object storage.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// CreateStreetInput carries the cleaned multipart upload form.
type CreateStreetInput struct {
	Type         string
	Mode         string
	Name         string
	City         string
	Country      string
	Category     string
	Description  string
	Lat          float64
	Lng          float64
	VideoFiles   []FileUpload
	VideoLinks   string // comma/newline separated pasted links
	ModelFile    *FileUpload
	ModelLink    string
	Thumbnail    *FileUpload
	IsTour       bool
	TourCategory string
	TourBestTime string
}

// UpdateStreetInput carries an owner/admin edit. Nil pointers leave fields
// untouched.
type UpdateStreetInput struct {
	Name         *string  `json:"name"`
	City         *string  `json:"city"`
	Country      *string  `json:"country"`
	Category     *string  `json:"category"`
	Description  *string  `json:"description"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Mode         *string  `json:"mode"`
	Status       *string  `json:"status"`
	VideoLinks   *string  `json:"video_links"`
	IsTour       *bool    `json:"is_tour"`
	TourCategory *string  `json:"tour_category"`
	TourBestTime *string  `json:"tour_best_time"`
}

// StreetService defines the interface for business logic related to Street
type StreetService interface {
	Create(ctx context.Context, owner *model.User, input CreateStreetInput) (*model.Street, error)
	ListPublished(ctx context.Context, filter repository.StreetFilter, page, limit int) ([]model.Street, int64, error)
	GetPublished(ctx context.Context, id string) (*model.Street, error)
	Dashboard(ctx context.Context, user *model.User, page, limit int) ([]model.Street, int64, error)
	Update(ctx context.Context, user *model.User, id string, input UpdateStreetInput) (*model.Street, error)
	Delete(ctx context.Context, user *model.User, id string) error
	Like(ctx context.Context, id, likerKey string) (int64, error)
	Categories(ctx context.Context, mode string) ([]string, error)
	AdminList(ctx context.Context, page, limit int) ([]model.Street, int64, error)
}

type streetService struct {
	streets  repository.StreetRepository
	uploader storage.Uploader
	cfg      *config.Config
}

// NewStreetService returns a new instance of StreetService
func NewStreetService(streets repository.StreetRepository, uploader storage.Uploader, cfg *config.Config) StreetService {
	return &streetService{streets: streets, uploader: uploader, cfg: cfg}
}

// validCoordinates enforces the lat/lng range invariant for every write.
func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// truncate caps a string at max runes.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// parseVideoLinks splits pasted links on commas and newlines, preserving
// order and dropping empties.
func parseVideoLinks(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	links := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			links = append(links, trimmed)
		}
	}
	return links
}

func (s *streetService) Create(ctx context.Context, owner *model.User, input CreateStreetInput) (*model.Street, error) {
	if !validCoordinates(input.Lat, input.Lng) {
		return nil, ErrInvalidCoordinates
	}

	street := &model.Street{
		Type:        input.Type,
		Name:        truncate(input.Name, maxNameLen),
		City:        truncate(input.City, maxNameLen),
		Country:     truncate(input.Country, maxNameLen),
		Category:    truncate(input.Category, maxCategoryLen),
		Description: truncate(input.Description, maxDescriptionLen),
		Lat:         input.Lat,
		Lng:         input.Lng,
		OwnerID:     owner.ID,
		Status:      model.StatusPublished,
		Likes:       0,
	}

	switch input.Type {
	case model.StreetTypeVideo:
		if err := s.buildVideoStreet(ctx, street, input); err != nil {
			return nil, err
		}
	case model.StreetType3D:
		if err := s.buildModelStreet(ctx, street, input); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidStreetType
	}

	if err := s.streets.Insert(ctx, street); err != nil {
		return nil, err
	}
	return street, nil
}

// buildVideoStreet validates the video variant: mode defaults to walk, the
// clip sequence is uploaded files first then pasted links, and tour metadata
// is carried over.
func (s *streetService) buildVideoStreet(ctx context.Context, street *model.Street, input CreateStreetInput) error {
	street.Mode = input.Mode
	if !model.ValidMode(street.Mode) {
		street.Mode = model.ModeWalk
	}

	street.IsTour = input.IsTour
	street.TourCategory = truncate(input.TourCategory, maxCategoryLen)
	street.TourBestTime = truncate(input.TourBestTime, maxCategoryLen)

	var urls []string
	for _, file := range input.VideoFiles {
		if file.Size > s.cfg.MaxVideoBytes {
			return fmt.Errorf("%w: video files are limited to %d MB", ErrFileTooLarge, s.cfg.MaxVideoBytes>>20)
		}
		url, err := s.uploader.Upload(ctx, "videos", extensionOf(file.Filename, ".mp4"), file.ContentType, file.Reader)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		urls = append(urls, url)
	}
	urls = append(urls, parseVideoLinks(input.VideoLinks)...)

	if len(urls) == 0 {
		return ErrNoVideoSource
	}

	street.Videos = make([]model.StreetVideo, 0, len(urls))
	for i, u := range urls {
		street.Videos = append(street.Videos, model.StreetVideo{
			URL:      u,
			Title:    fmt.Sprintf("Clip %d", i+1),
			Position: i,
		})
	}

	if input.Thumbnail != nil {
		if input.Thumbnail.Size > s.cfg.MaxThumbnailBytes {
			return fmt.Errorf("%w: thumbnails are limited to %d MB", ErrFileTooLarge, s.cfg.MaxThumbnailBytes>>20)
		}
		url, err := s.uploader.Upload(ctx, "thumbnails", extensionOf(input.Thumbnail.Filename, ".jpg"),
			input.Thumbnail.ContentType, input.Thumbnail.Reader)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		street.ThumbnailURL = url
	}

	return nil
}

// buildModelStreet validates the 3d variant: exactly one GLB source.
func (s *streetService) buildModelStreet(ctx context.Context, street *model.Street, input CreateStreetInput) error {
	switch {
	case input.ModelFile != nil:
		if input.ModelFile.Size > s.cfg.MaxModelBytes {
			return fmt.Errorf("%w: GLB models are limited to %d MB", ErrFileTooLarge, s.cfg.MaxModelBytes>>20)
		}
		url, err := s.uploader.Upload(ctx, "models", ".glb", "model/gltf-binary", input.ModelFile.Reader)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		street.GlbURL = url
	case strings.TrimSpace(input.ModelLink) != "":
		street.GlbURL = strings.TrimSpace(input.ModelLink)
	default:
		return ErrNoModelSource
	}
	return nil
}

func extensionOf(filename, fallback string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return fallback
}

func (s *streetService) ListPublished(ctx context.Context, filter repository.StreetFilter, page, limit int) ([]model.Street, int64, error) {
	return s.streets.FindPublished(ctx, filter, page, limit)
}

func (s *streetService) GetPublished(ctx context.Context, id string) (*model.Street, error) {
	streetID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrStreetNotFound
	}
	street, err := s.streets.FindPublishedByID(ctx, streetID)
	if err != nil {
		return nil, ErrStreetNotFound
	}
	return street, nil
}

func (s *streetService) Dashboard(ctx context.Context, user *model.User, page, limit int) ([]model.Street, int64, error) {
	return s.streets.FindByOwnerOrAll(ctx, user.ID, user.IsAdmin(), page, limit)
}

// Update applies an owner/admin edit. A non-owner, non-admin requester gets
// not-found, never forbidden, so street existence is not leaked.
func (s *streetService) Update(ctx context.Context, user *model.User, id string, input UpdateStreetInput) (*model.Street, error) {
	streetID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrStreetNotFound
	}

	street, err := s.streets.FindByID(ctx, streetID)
	if err != nil {
		return nil, ErrStreetNotFound
	}
	if street.OwnerID != user.ID && !user.IsAdmin() {
		return nil, ErrStreetNotFound
	}

	lat, lng := street.Lat, street.Lng
	if input.Lat != nil {
		lat = *input.Lat
	}
	if input.Lng != nil {
		lng = *input.Lng
	}
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	fields := map[string]interface{}{"lat": lat, "lng": lng}
	if input.Name != nil {
		fields["name"] = truncate(*input.Name, maxNameLen)
	}
	if input.City != nil {
		fields["city"] = truncate(*input.City, maxNameLen)
	}
	if input.Country != nil {
		fields["country"] = truncate(*input.Country, maxNameLen)
	}
	if input.Category != nil {
		fields["category"] = truncate(*input.Category, maxCategoryLen)
	}
	if input.Description != nil {
		fields["description"] = truncate(*input.Description, maxDescriptionLen)
	}
	if input.Status != nil && (*input.Status == model.StatusPublished || *input.Status == model.StatusDraft) {
		fields["status"] = *input.Status
	}
	if street.Type == model.StreetTypeVideo {
		if input.Mode != nil && model.ValidMode(*input.Mode) {
			fields["mode"] = *input.Mode
		}
		if input.IsTour != nil {
			fields["is_tour"] = *input.IsTour
		}
		if input.TourCategory != nil {
			fields["tour_category"] = truncate(*input.TourCategory, maxCategoryLen)
		}
		if input.TourBestTime != nil {
			fields["tour_best_time"] = truncate(*input.TourBestTime, maxCategoryLen)
		}
	}

	if err := s.streets.UpdateFields(ctx, streetID, fields); err != nil {
		return nil, ErrStreetNotFound
	}

	if street.Type == model.StreetTypeVideo && input.VideoLinks != nil {
		links := parseVideoLinks(*input.VideoLinks)
		if len(links) > 0 {
			videos := make([]model.StreetVideo, 0, len(links))
			for i, u := range links {
				videos = append(videos, model.StreetVideo{
					StreetID: streetID,
					URL:      u,
					Title:    fmt.Sprintf("Clip %d", i+1),
					Position: i,
				})
			}
			if err := s.streets.ReplaceVideos(ctx, streetID, videos); err != nil {
				return nil, err
			}
		}
	}

	return s.streets.FindByID(ctx, streetID)
}

// Delete soft-deletes a street. Same not-found policy as Update.
func (s *streetService) Delete(ctx context.Context, user *model.User, id string) error {
	streetID, err := uuid.Parse(id)
	if err != nil {
		return ErrStreetNotFound
	}

	street, err := s.streets.FindByID(ctx, streetID)
	if err != nil {
		return ErrStreetNotFound
	}
	if street.OwnerID != user.ID && !user.IsAdmin() {
		return ErrStreetNotFound
	}

	if err := s.streets.SoftDelete(ctx, streetID); err != nil {
		return ErrStreetNotFound
	}
	return nil
}

func (s *streetService) Like(ctx context.Context, id, likerKey string) (int64, error) {
	streetID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrStreetNotFound
	}

	likes, err := s.streets.IncrementLike(ctx, streetID, likerKey)
	if err != nil {
		return 0, ErrStreetNotFound
	}
	return likes, nil
}

func (s *streetService) Categories(ctx context.Context, mode string) ([]string, error) {
	if !model.ValidMode(mode) {
		mode = model.ModeWalk
	}
	return s.streets.DistinctCategories(ctx, mode)
}

func (s *streetService) AdminList(ctx context.Context, page, limit int) ([]model.Street, int64, error) {
	return s.streets.FindAllUnscoped(ctx, page, limit)
}
