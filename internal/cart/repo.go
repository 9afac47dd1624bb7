package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByBuyer loads the buyer's cart with its items.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByBuyer returns the buyer's cart, creating an empty one on first use.
func (r *Repository) FindOrCreateByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := r.FindByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.CartRecord{BuyerID: buyerID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// ReplaceItems swaps the cart's contents for the provided lines.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].CartID = cartID
		}
		return tx.Create(&items).Error
	})
}

// Clear removes every line from the cart.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// FindProductsByIDs loads catalog rows for cart validation and quoting.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
