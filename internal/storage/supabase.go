package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Uploader hands a raw file stream to object storage and returns a public
// URL. Callers do not interpret the storage response beyond success/failure.
type Uploader interface {
	Upload(ctx context.Context, folder, extension, contentType string, body io.Reader) (string, error)
}

// SupabaseUploader pushes objects into a Supabase storage bucket over HTTP.
type SupabaseUploader struct {
	httpClient *http.Client
	baseURL    string
	bucket     string
	serviceKey string
}

// NewSupabaseUploader builds an Uploader for one bucket.
func NewSupabaseUploader(baseURL, bucket, serviceKey string, timeout time.Duration) *SupabaseUploader {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &SupabaseUploader{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		bucket:     bucket,
		serviceKey: serviceKey,
	}
}

// Upload stores the stream under a generated object name and returns the
// public URL.
func (u *SupabaseUploader) Upload(ctx context.Context, folder, extension, contentType string, body io.Reader) (string, error) {
	if u.baseURL == "" || u.serviceKey == "" {
		return "", fmt.Errorf("object storage is not configured")
	}

	objectName := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), extension)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", u.baseURL, u.bucket, objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", u.serviceKey)
	req.Header.Set("Authorization", "Bearer "+u.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage upload failed: status %d: %s", resp.StatusCode, detail)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, objectName), nil
}
