package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a vendor listing in the catalog.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID      `gorm:"column:store_id;type:uuid;not null;index"`
	Name        string         `gorm:"column:name;not null"`
	Description *string        `gorm:"column:description"`
	Category    string         `gorm:"column:category;not null;index"`
	PriceCents  int64          `gorm:"column:price_cents;not null"`
	Stock       int            `gorm:"column:stock;not null;default:0"`
	ImageURLs   pq.StringArray `gorm:"column:image_urls;type:text[]"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
