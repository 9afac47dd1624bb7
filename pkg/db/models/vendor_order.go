package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/types"
)

// VendorOrder is the per-vendor sub-order produced by fanning out a buyer
// order. At most one exists per (buyer_order_id, vendor_id) pair.
type VendorOrder struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string                  `gorm:"column:code;not null;uniqueIndex"`
	BuyerOrderID uuid.UUID               `gorm:"column:buyer_order_id;type:uuid;not null;uniqueIndex:idx_vendor_orders_parent_vendor"`
	VendorID     uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_vendor_orders_parent_vendor;index"`
	BuyerID      uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status       enums.VendorOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Priority     enums.OrderPriority     `gorm:"column:priority;type:text;not null;default:'low'"`
	Tags         pq.StringArray          `gorm:"column:tags;type:text[]"`

	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	ShippingAddress types.JSONMap       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Currency        string              `gorm:"column:currency;not null;default:'CRC'"`
	SubtotalCents   int64               `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int64               `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int64               `gorm:"column:total_cents;not null"`
	ItemCount       int                 `gorm:"column:item_count;not null"`

	TrackingNumber *string `gorm:"column:tracking_number"`
	VendorNotes    *string `gorm:"column:vendor_notes"`

	History               types.StatusHistory `gorm:"column:history;type:jsonb;serializer:json"`
	ConfirmedAt           *time.Time          `gorm:"column:confirmed_at"`
	ProcessedAt           *time.Time          `gorm:"column:processed_at"`
	ShippedAt             *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	CancelledAt           *time.Time          `gorm:"column:cancelled_at"`
	ProcessingTimeMinutes *int64              `gorm:"column:processing_time_minutes"`
	DeliveryTimeDays      *int64              `gorm:"column:delivery_time_days"`

	Items     []VendorOrderItem `gorm:"foreignKey:VendorOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorOrderItem captures the snapshot of each item within a sub-order.
type VendorOrderItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorOrderID  uuid.UUID             `gorm:"column:vendor_order_id;type:uuid;not null;index"`
	ProductID      *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Name           string                `gorm:"column:name;not null"`
	UnitPriceCents int64                 `gorm:"column:unit_price_cents;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	TotalCents     int64                 `gorm:"column:total_cents;not null"`
	Snapshot       types.ProductSnapshot `gorm:"column:snapshot;type:jsonb;serializer:json"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
