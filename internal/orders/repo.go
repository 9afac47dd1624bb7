package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBuyerOrder(ctx context.Context, order *models.BuyerOrder) (*models.BuyerOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindBuyerOrder(ctx context.Context, id uuid.UUID) (*models.BuyerOrder, error) {
	var order models.BuyerOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("VendorOrders").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindBuyerOrderByCode(ctx context.Context, code string) (*models.BuyerOrder, error) {
	var order models.BuyerOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("VendorOrders").
		Where("code = ?", code).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateBuyerOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.BuyerOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters BuyerOrderFilters) (*BuyerOrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.BuyerOrder{}).
		Where("buyer_id = ?", buyerID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.BuyerOrder
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &BuyerOrderList{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) CreateVendorOrder(ctx context.Context, order *models.VendorOrder) (*models.VendorOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateVendorOrderItems(ctx context.Context, items []models.VendorOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindVendorOrder(ctx context.Context, id uuid.UUID) (*models.VendorOrder, error) {
	var order models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindVendorOrderByParentAndVendor(ctx context.Context, buyerOrderID, vendorID uuid.UUID) (*models.VendorOrder, error) {
	var order models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_order_id = ? AND vendor_id = ?", buyerOrderID, vendorID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindVendorOrdersByParent(ctx context.Context, buyerOrderID uuid.UUID) ([]models.VendorOrder, error) {
	var orders []models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_order_id = ?", buyerOrderID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateVendorOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters VendorOrderFilters) (*VendorOrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.VendorOrder{}).
		Preload("Items").
		Where("vendor_id = ?", vendorID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("code ILIKE ? OR tracking_number ILIKE ?", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.VendorOrder
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &VendorOrderList{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) FindParentsUpdatedSince(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.VendorOrder{}).
		Distinct("buyer_order_id").
		Where("updated_at >= ?", cutoff)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("buyer_order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
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
