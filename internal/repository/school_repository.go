package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

var ErrSchoolNotFound = errors.New("school not found")

type SchoolRepository interface {
	Create(ctx context.Context, school *domain.School) error
	FindByID(ctx context.Context, id uint) (*domain.School, error)
	ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.School], error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	DeleteByID(ctx context.Context, id uint) error
}

type GormSchoolRepository struct{ db *gorm.DB }

func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &GormSchoolRepository{db: db}
}

func (r *GormSchoolRepository) Create(ctx context.Context, school *domain.School) error {
	if err := r.db.WithContext(ctx).Create(school).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "school", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "school", "create", "success")
	return nil
}

func (r *GormSchoolRepository) FindByID(ctx context.Context, id uint) (*domain.School, error) {
	var school domain.School
	if err := r.db.WithContext(ctx).First(&school, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "school", "find_by_id", "not_found")
			return nil, ErrSchoolNotFound
		}
		observability.RecordRepositoryOperation(ctx, "school", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "school", "find_by_id", "success")
	return &school, nil
}

// ListPaged returns schools newest first, matching the directory listing
// order of the UI.
func (r *GormSchoolRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.School], error) {
	req = req.normalized()

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.School{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "school", "list", "error")
		return PageResult[domain.School]{}, err
	}

	var items []domain.School
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(req.PageSize).
		Offset(req.offset()).
		Find(&items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "school", "list", "error")
		return PageResult[domain.School]{}, err
	}
	observability.RecordRepositoryOperation(ctx, "school", "list", "success")
	return PageResult[domain.School]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: totalPages(total, req.PageSize),
	}, nil
}

func (r *GormSchoolRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.School{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "school", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "school", "update", "not_found")
		return ErrSchoolNotFound
	}
	observability.RecordRepositoryOperation(ctx, "school", "update", "success")
	return nil
}

func (r *GormSchoolRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.School{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "school", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "school", "delete", "not_found")
		return ErrSchoolNotFound
	}
	observability.RecordRepositoryOperation(ctx, "school", "delete", "success")
	return nil
}
