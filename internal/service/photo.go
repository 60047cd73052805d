package service

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
)

// ObjectStore issues presigned URLs for direct object access.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PhotoService hands out presigned upload and download URLs for meal photos.
type PhotoService struct {
	store ObjectStore
	now   func() time.Time
}

// NewPhotoService creates a new photo service.
func NewPhotoService(store ObjectStore) *PhotoService {
	return &PhotoService{store: store, now: time.Now}
}

func photoPrefix(userID string) string {
	return "users/" + userID + "/"
}

// PresignUpload reserves a new key under users/<uid>/<yyyy>/<mm>/ and returns
// a URL the client can PUT the image to.
func (s *PhotoService) PresignUpload(ctx context.Context, userID, contentType string) (*domain.PhotoUpload, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, apperrors.InvalidInput("content_type must be an image type")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s%04d/%02d/%s", photoPrefix(userID), now.Year(), int(now.Month()), uuid.NewString())

	url, err := s.store.PresignPut(ctx, key, mediaType, domain.PhotoURLLifetime)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("photo storage unavailable", err)
	}

	return &domain.PhotoUpload{
		Key:       key,
		UploadURL: url,
		ExpiresIn: int(domain.PhotoURLLifetime / time.Second),
	}, nil
}

// DownloadURL returns a short-lived URL for the photo stored at key.
func (s *PhotoService) DownloadURL(ctx context.Context, key string) (string, error) {
	if !validPhotoKey(key) {
		return "", apperrors.NotFound("photo", key)
	}

	url, err := s.store.PresignGet(ctx, key, domain.PhotoURLLifetime)
	if err != nil {
		return "", apperrors.ServiceUnavailable("photo storage unavailable", err)
	}
	return url, nil
}

// validPhotoKey accepts users/<uid>/<yyyy>/<mm>/<name> with no traversal.
func validPhotoKey(key string) bool {
	if key == "" || path.Clean(key) != key || strings.Contains(key, "..") {
		return false
	}
	parts := strings.Split(key, "/")
	return len(parts) == 5 && parts[0] == "users" && parts[1] != "" && parts[4] != ""
}
