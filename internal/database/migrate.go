package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(
		&domain.User{},
		&domain.OneTimeCode{},
		&domain.School{},
	)
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	return nil
}
