package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository persists a buyer's saved products.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add saves a product for the user; re-adding is a no-op.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	favorite := &models.FavoriteItem{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(favorite).Error
}

// Remove drops the saved product, if present.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.FavoriteItem{}).Error
}

// ListProducts returns the catalog rows the user has saved, newest first.
func (r *Repository) ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN favorite_items ON favorite_items.product_id = products.id").
		Where("favorite_items.user_id = ?", userID).
		Order("favorite_items.created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
