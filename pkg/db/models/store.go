package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store is a seller storefront. One user owns at most one store.
type Store struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name        string         `gorm:"column:name;not null"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	Categories  pq.StringArray `gorm:"column:categories;type:text[]"`
	LogoURL     *string        `gorm:"column:logo_url"`
	Province    *string        `gorm:"column:province"`
	Canton      *string        `gorm:"column:canton"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
