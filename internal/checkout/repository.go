package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// Repository bundles the persistence operations checkout needs across the
// cart, catalog, and orders tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a checkout repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindCartByBuyer loads the buyer's cart with its items.
func (r *Repository) FindCartByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
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

// FindProductsByIDs loads catalog rows for pricing and seller resolution.
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

// CreateBuyerOrder inserts the parent order together with its items.
func (r *Repository) CreateBuyerOrder(ctx context.Context, order *models.BuyerOrder) (*models.BuyerOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// DecrementStock subtracts the purchased quantity from a product's stock.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity)).Error
}

// ClearCart removes every line from the cart.
func (r *Repository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
