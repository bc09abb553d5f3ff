package domain

import "time"

// User holds nothing beyond the verified email address. Rows are created
// lazily on first successful code verification.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
