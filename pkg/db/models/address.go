package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved shipping destination for a buyer.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label      string    `gorm:"column:label;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	District   string    `gorm:"column:district;not null"`
	Canton     string    `gorm:"column:canton;not null"`
	Province   string    `gorm:"column:province;not null"`
	PostalCode *string   `gorm:"column:postal_code"`
	Notes      *string   `gorm:"column:notes"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
