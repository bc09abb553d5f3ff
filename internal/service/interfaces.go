package service

import (
	"context"
	"io"

	"github.com/schoolhub/school-directory-service/internal/repository"
)

//go:generate mockgen -source=interfaces.go -destination=gomock/mocks.go -package=gomock

type AuthServiceInterface interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error)
	CleanupExpiredCodes(ctx context.Context) (int64, error)
}

type SchoolServiceInterface interface {
	Create(ctx context.Context, in SchoolInput, image *ImageUpload) (*SchoolView, error)
	Get(ctx context.Context, id uint) (*SchoolView, error)
	List(ctx context.Context, page repository.PageRequest) (*SchoolPage, error)
	Update(ctx context.Context, id uint, in SchoolPatch, image *ImageUpload) (*SchoolView, error)
	Delete(ctx context.Context, id uint) error
}

// ImageUpload carries a multipart file through to object storage.
type ImageUpload struct {
	Reader io.Reader
	Size   int64
}
