package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository persists product and store reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertProductReview writes the buyer's review, replacing any prior one for
// the same product.
func (r *Repository) UpsertProductReview(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "buyer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(review).Error
}

// UpsertStoreReview writes the buyer's review, replacing any prior one for
// the same store.
func (r *Repository) UpsertStoreReview(ctx context.Context, review *models.StoreReview) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "buyer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(review).Error
}

// ListProductReviews returns a product's reviews, newest first.
func (r *Repository) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	var reviews []models.ProductReview
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListStoreReviews returns a store's reviews, newest first.
func (r *Repository) ListStoreReviews(ctx context.Context, storeID uuid.UUID) ([]models.StoreReview, error) {
	var reviews []models.StoreReview
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
