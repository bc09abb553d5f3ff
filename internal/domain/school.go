package domain

import "time"

type School struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Address   string    `gorm:"size:500;not null" json:"address"`
	City      string    `gorm:"size:120;not null" json:"city"`
	State     string    `gorm:"size:120;not null" json:"state"`
	Contact   string    `gorm:"size:32;not null" json:"contact"`
	EmailID   string    `gorm:"size:255;not null" json:"email_id"`
	ImageKey  string    `gorm:"size:1024" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
