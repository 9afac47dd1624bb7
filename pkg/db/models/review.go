package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductReview is a buyer's rating of a purchased product.
type ProductReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_review_once"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_product_review_once"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// StoreReview is a buyer's rating of a vendor storefront.
type StoreReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_store_review_once"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_store_review_once"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
