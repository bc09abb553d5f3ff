package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// EnsureByEmail creates the user row if absent and returns it either
	// way, so one logical user exists per email no matter how many times
	// verification succeeds.
	EnsureByEmail(ctx context.Context, email string) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) EnsureByEmail(ctx context.Context, email string) (*domain.User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&domain.User{Email: email}).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "ensure", "error")
		return nil, err
	}
	// The conflict path leaves the struct without an ID; reload either way.
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "ensure", "success")
	return u, nil
}
