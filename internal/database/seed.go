package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

var sampleSchools = []domain.School{
	{
		Name:    "Green Valley High School",
		Address: "12 Hill Road, Bandra West",
		City:    "Mumbai",
		State:   "Maharashtra",
		Contact: "+91 9876543210",
		EmailID: "office@greenvalley.example",
	},
	{
		Name:    "Sunrise Public School",
		Address: "45 MG Road",
		City:    "Pune",
		State:   "Maharashtra",
		Contact: "+91 9822001122",
		EmailID: "admin@sunrisepublic.example",
	},
	{
		Name:    "Riverdale Academy",
		Address: "8 Lake View Street",
		City:    "Bengaluru",
		State:   "Karnataka",
		Contact: "+91 9900112233",
		EmailID: "contact@riverdale.example",
	},
}

type SeedReport struct {
	CreatedSchools int  `json:"created_schools"`
	Noop           bool `json:"noop"`
}

// Seed inserts the sample directory entries used by fresh environments.
// Matching by name keeps the call idempotent.
func Seed(db *gorm.DB) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}
	for _, s := range sampleSchools {
		res := db.Where("name = ?", s.Name).FirstOrCreate(&s)
		if res.Error != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			report.CreatedSchools++
		}
	}
	report.Noop = report.CreatedSchools == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}
