package domain

import "time"

// OneTimeCode is a single-use login code mailed to an address. Rows are
// append-only: issuing a new code never touches prior rows, and the only
// mutation ever applied is flipping Consumed to true.
type OneTimeCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_one_time_codes_email" json:"email"`
	Code      string    `gorm:"size:12;not null" json:"-"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}
