package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateBuyerOrder(ctx context.Context, order *models.BuyerOrder) (*models.BuyerOrder, error)
	FindBuyerOrder(ctx context.Context, id uuid.UUID) (*models.BuyerOrder, error)
	FindBuyerOrderByCode(ctx context.Context, code string) (*models.BuyerOrder, error)
	UpdateBuyerOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error)

	CreateVendorOrder(ctx context.Context, order *models.VendorOrder) (*models.VendorOrder, error)
	CreateVendorOrderItems(ctx context.Context, items []models.VendorOrderItem) error
	FindVendorOrder(ctx context.Context, id uuid.UUID) (*models.VendorOrder, error)
	FindVendorOrderByParentAndVendor(ctx context.Context, buyerOrderID, vendorID uuid.UUID) (*models.VendorOrder, error)
	FindVendorOrdersByParent(ctx context.Context, buyerOrderID uuid.UUID) ([]models.VendorOrder, error)
	UpdateVendorOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOrderFilters) (*VendorOrderList, error)

	FindParentsUpdatedSince(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}
