package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Revenue KPIs only count delivered sub-orders; money still in flight on
// open orders is not revenue yet.
const (
	summarySQL = `
SELECT
  COUNT(*) AS orders_total,
  COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS delivered_count,
  COALESCE(SUM(CASE WHEN status IN ('pending', 'confirmed', 'processing', 'ready_to_ship', 'shipped', 'delayed') THEN 1 ELSE 0 END), 0) AS open_count,
  COALESCE(SUM(CASE WHEN status = 'delivered' THEN total_cents ELSE 0 END), 0) AS revenue_cents,
  COALESCE(SUM(item_count), 0) AS items_sold,
  COALESCE(AVG(CASE WHEN status = 'delivered' THEN total_cents END), 0) AS avg_order_value_cents
FROM vendor_orders
WHERE vendor_id = ? AND created_at BETWEEN ? AND ?
`

	revenueByDaySQL = `
SELECT CAST(DATE(delivered_at) AS TEXT) AS date, SUM(total_cents) AS value
FROM vendor_orders
WHERE vendor_id = ? AND status = 'delivered' AND delivered_at BETWEEN ? AND ?
GROUP BY date
ORDER BY date ASC
`

	statusBreakdownSQL = `
SELECT status AS label, COUNT(*) AS value
FROM vendor_orders
WHERE vendor_id = ? AND created_at BETWEEN ? AND ?
GROUP BY status
ORDER BY value DESC, label ASC
`

	topProductsSQL = `
SELECT items.name AS label, SUM(items.total_cents) AS value
FROM vendor_order_items items
JOIN vendor_orders orders ON orders.id = items.vendor_order_id
WHERE orders.vendor_id = ? AND orders.created_at BETWEEN ? AND ?
GROUP BY items.name
ORDER BY value DESC, label ASC
LIMIT ?
`
)

// Repository runs the dashboard aggregates against the orders tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analytics repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Summary returns the headline KPIs for the vendor over the window.
func (r *Repository) Summary(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (*Summary, error) {
	var summary Summary
	err := r.db.WithContext(ctx).
		Raw(summarySQL, vendorID, start, end).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// RevenueByDay returns delivered revenue bucketed per calendar day.
func (r *Repository) RevenueByDay(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]TimeSeriesPoint, error) {
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).
		Raw(revenueByDaySQL, vendorID, start, end).
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

// StatusBreakdown counts the vendor's sub-orders per status.
func (r *Repository) StatusBreakdown(ctx context.Context, vendorID uuid.UUID, start, end time.Time) ([]LabelValue, error) {
	var buckets []LabelValue
	err := r.db.WithContext(ctx).
		Raw(statusBreakdownSQL, vendorID, start, end).
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// TopProducts ranks the vendor's line items by revenue.
func (r *Repository) TopProducts(ctx context.Context, vendorID uuid.UUID, start, end time.Time, limit int) ([]LabelValue, error) {
	var rows []LabelValue
	err := r.db.WithContext(ctx).
		Raw(topProductsSQL, vendorID, start, end, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
