package models

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteItem marks a product a buyer saved for later.
type FavoriteItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_favorite_once"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_favorite_once"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
