package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schoolhub/school-directory-service/internal/observability"
)

const (
	maxImageSize      = 5 * 1024 * 1024 // 5 MB
	presignedURLTTL   = 15 * time.Minute
	schoolImagePrefix = "schools"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")

	allowedImageTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService holds school images in an S3-compatible bucket.
type StorageService interface {
	// UploadSchoolImage stores an image and returns its object key.
	UploadSchoolImage(ctx context.Context, file io.Reader, fileSize int64) (string, error)

	// DeleteSchoolImage removes an image by object key. Empty keys no-op.
	DeleteSchoolImage(ctx context.Context, objectKey string) error

	// GenerateImageURL returns a short-lived presigned GET URL for the key.
	GenerateImageURL(ctx context.Context, objectKey string) (string, error)
}

type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
	initOnce   sync.Once
	initErr    error
}

// NewMinIOStorageService builds the MinIO client. Bucket creation waits for
// the first operation so a cold bucket never blocks startup.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStorageService{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOStorageService) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

// UploadSchoolImage validates size and sniffs the content type from the
// leading bytes before touching MinIO, so a spoofed Content-Type header
// cannot smuggle a non-image through.
func (s *MinIOStorageService) UploadSchoolImage(ctx context.Context, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxImageSize {
		observability.RecordImageUpload(ctx, "unknown", "too_big")
		return "", ErrFileTooBig
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]

	detectedType := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, allowed := allowedImageTypes[detectedType]; !allowed {
		observability.RecordImageUpload(ctx, detectedType, "invalid_type")
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	fullFile := io.MultiReader(bytes.NewReader(buf), file)
	objectKey := fmt.Sprintf("%s/%s%s", schoolImagePrefix, uuid.New().String(), contentTypeToExtension(detectedType))

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, fullFile, fileSize, minio.PutObjectOptions{
		ContentType: detectedType,
		UserMetadata: map[string]string{
			"Detected-Content-Type": detectedType,
			"Uploaded-At":           time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		observability.RecordImageUpload(ctx, detectedType, "error")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	observability.RecordImageUpload(ctx, detectedType, "success")
	observability.RecordImageUploadBytes(ctx, fileSize)
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteSchoolImage(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	// Keys are minted by UploadSchoolImage; anything outside the prefix or
	// containing traversal sequences did not come from us.
	if strings.Contains(objectKey, "..") || !strings.HasPrefix(objectKey, schoolImagePrefix+"/") {
		return ErrDeleteFailed
	}

	if err := s.lazyInit(ctx); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinIOStorageService) GenerateImageURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presignedURL.String(), nil
}

// BucketExists exposes the underlying probe so readiness checks can see
// the bucket without going through an upload path.
func (s *MinIOStorageService) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
