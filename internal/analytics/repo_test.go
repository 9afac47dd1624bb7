package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	vendorOrders := `
CREATE TABLE vendor_orders (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  buyer_order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  status TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  item_count INTEGER NOT NULL,
  delivered_at DATETIME,
  created_at DATETIME
);`
	vendorOrderItems := `
CREATE TABLE vendor_order_items (
  id TEXT PRIMARY KEY,
  vendor_order_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(vendorOrders).Error)
	require.NoError(t, db.Exec(vendorOrderItems).Error)

	return db
}

type seededOrder struct {
	id          uuid.UUID
	status      string
	totalCents  int64
	itemCount   int
	createdAt   time.Time
	deliveredAt *time.Time
}

func seedVendorOrder(t *testing.T, db *gorm.DB, vendorID uuid.UUID, order seededOrder) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO vendor_orders (id, code, buyer_order_id, vendor_id, buyer_id, status, total_cents, item_count, delivered_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.id, "FER-TEST", uuid.New(), vendorID, uuid.New(),
		order.status, order.totalCents, order.itemCount, order.deliveredAt, order.createdAt,
	).Error
	require.NoError(t, err)
}

func seedOrderItem(t *testing.T, db *gorm.DB, orderID uuid.UUID, name string, totalCents int64) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO vendor_order_items (id, vendor_order_id, name, unit_price_cents, quantity, total_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New(), orderID, name, totalCents, 1, totalCents, time.Now(),
	).Error
	require.NoError(t, err)
}

func TestSummaryAggregatesVendorOrders(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	vendorID := uuid.New()
	otherVendor := uuid.New()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deliveredAt := base.Add(48 * time.Hour)

	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "delivered", totalCents: 10000, itemCount: 2, createdAt: base, deliveredAt: &deliveredAt})
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "delivered", totalCents: 6000, itemCount: 1, createdAt: base.Add(time.Hour), deliveredAt: &deliveredAt})
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "pending", totalCents: 4000, itemCount: 3, createdAt: base.Add(2 * time.Hour)})
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "cancelled", totalCents: 9000, itemCount: 1, createdAt: base.Add(3 * time.Hour)})
	seedVendorOrder(t, db, otherVendor, seededOrder{id: uuid.New(), status: "delivered", totalCents: 99999, itemCount: 9, createdAt: base})

	summary, err := repo.Summary(context.Background(), vendorID, base.Add(-time.Hour), base.Add(time.Hour*24))
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.OrdersTotal)
	assert.Equal(t, int64(2), summary.DeliveredCount)
	assert.Equal(t, int64(1), summary.OpenCount)
	assert.Equal(t, int64(16000), summary.RevenueCents)
	assert.Equal(t, int64(7), summary.ItemsSold)
	assert.InDelta(t, 8000.0, summary.AvgOrderValueCents, 0.01)
}

func TestRevenueByDayBucketsDeliveredOrders(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	vendorID := uuid.New()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day1Later := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "delivered", totalCents: 5000, itemCount: 1, createdAt: day1.Add(-48 * time.Hour), deliveredAt: &day1})
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "delivered", totalCents: 2500, itemCount: 1, createdAt: day1.Add(-48 * time.Hour), deliveredAt: &day1Later})
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "delivered", totalCents: 8000, itemCount: 1, createdAt: day2.Add(-24 * time.Hour), deliveredAt: &day2})
	// pending order must not contribute revenue
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "pending", totalCents: 7777, itemCount: 1, createdAt: day1})

	points, err := repo.RevenueByDay(context.Background(), vendorID, day1.Add(-time.Hour), day2.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-10", points[0].Date)
	assert.Equal(t, int64(7500), points[0].Value)
	assert.Equal(t, "2026-03-12", points[1].Date)
	assert.Equal(t, int64(8000), points[1].Value)
}

func TestStatusBreakdownCountsPerStatus(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	vendorID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "pending", totalCents: 1000, itemCount: 1, createdAt: base})
	}
	seedVendorOrder(t, db, vendorID, seededOrder{id: uuid.New(), status: "shipped", totalCents: 1000, itemCount: 1, createdAt: base})

	buckets, err := repo.StatusBreakdown(context.Background(), vendorID, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	assert.Equal(t, LabelValue{Label: "pending", Value: 3}, buckets[0])
	assert.Equal(t, LabelValue{Label: "shipped", Value: 1}, buckets[1])
}

func TestTopProductsRanksByRevenue(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewRepository(db)
	vendorID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	orderA := uuid.New()
	orderB := uuid.New()
	seedVendorOrder(t, db, vendorID, seededOrder{id: orderA, status: "delivered", totalCents: 9000, itemCount: 3, createdAt: base})
	seedVendorOrder(t, db, vendorID, seededOrder{id: orderB, status: "pending", totalCents: 4000, itemCount: 1, createdAt: base})

	seedOrderItem(t, db, orderA, "Taza de cerámica", 5000)
	seedOrderItem(t, db, orderA, "Bolso tejido", 4000)
	seedOrderItem(t, db, orderB, "Taza de cerámica", 4000)

	rows, err := repo.TopProducts(context.Background(), vendorID, base.Add(-time.Hour), base.Add(time.Hour), 5)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, LabelValue{Label: "Taza de cerámica", Value: 9000}, rows[0])
	assert.Equal(t, LabelValue{Label: "Bolso tejido", Value: 4000}, rows[1])

	limited, err := repo.TopProducts(context.Background(), vendorID, base.Add(-time.Hour), base.Add(time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Taza de cerámica", limited[0].Label)
}
