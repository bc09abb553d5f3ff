package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

var ErrCodeNotFound = errors.New("one-time code not found")

// CodeRepository owns the one_time_codes table. The store is append-only:
// issuing never deletes or invalidates earlier rows, and the only mutation
// is the consumed flip in Consume.
type CodeRepository interface {
	Create(ctx context.Context, code *domain.OneTimeCode) error

	// FindLatestValid returns the most recently created unconsumed row
	// matching email and code, or ErrCodeNotFound. Expiry is deliberately
	// not filtered here: the caller distinguishes an expired code from an
	// unknown one.
	FindLatestValid(ctx context.Context, email, code string) (*domain.OneTimeCode, error)

	// Consume flips consumed to true iff it is still false, in a single
	// conditional update. Returns whether this call performed the flip;
	// consuming an already-consumed row is a no-op, not an error. The
	// affected-row check is what makes two racing verifications of the
	// same code resolve to exactly one winner.
	Consume(ctx context.Context, id uint) (bool, error)

	// DeleteExpiredBefore removes rows whose expiry is older than the
	// cutoff. Housekeeping only; expired rows are rejected either way.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormCodeRepository struct{ db *gorm.DB }

func NewCodeRepository(db *gorm.DB) CodeRepository {
	return &GormCodeRepository{db: db}
}

func (r *GormCodeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "one_time_code", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "one_time_code", "create", "success")
	return nil
}

func (r *GormCodeRepository) FindLatestValid(ctx context.Context, email, code string) (*domain.OneTimeCode, error) {
	var row domain.OneTimeCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND consumed = ?", email, code, false).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "one_time_code", "find_latest_valid", "not_found")
			return nil, ErrCodeNotFound
		}
		observability.RecordRepositoryOperation(ctx, "one_time_code", "find_latest_valid", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "one_time_code", "find_latest_valid", "success")
	return &row, nil
}

func (r *GormCodeRepository) Consume(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.OneTimeCode{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "one_time_code", "consume", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "one_time_code", "consume", "already_consumed")
		return false, nil
	}
	observability.RecordRepositoryOperation(ctx, "one_time_code", "consume", "success")
	return true, nil
}

func (r *GormCodeRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&domain.OneTimeCode{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "one_time_code", "delete_expired", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "one_time_code", "delete_expired", "success")
	return res.RowsAffected, nil
}
