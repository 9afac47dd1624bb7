package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/types"
)

// BuyerOrder is the parent order a buyer places across one or more vendors.
type BuyerOrder struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string                 `gorm:"column:code;not null;uniqueIndex"`
	BuyerID         uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status          enums.BuyerOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	ShippingAddress types.JSONMap          `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Currency        string                 `gorm:"column:currency;not null;default:'CRC'"`
	SubtotalCents   int64                  `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int64                  `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int64                  `gorm:"column:total_cents;not null"`
	ItemCount       int                    `gorm:"column:item_count;not null"`
	Items           []BuyerOrderItem       `gorm:"foreignKey:BuyerOrderID;constraint:OnDelete:CASCADE"`
	VendorOrders    []VendorOrder          `gorm:"foreignKey:BuyerOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BuyerOrderItem is one purchased line on the parent order. VendorID is nil
// when the product had no assigned seller at order time.
type BuyerOrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerOrderID   uuid.UUID  `gorm:"column:buyer_order_id;type:uuid;not null;index"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	VendorID       *uuid.UUID `gorm:"column:vendor_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	TotalCents     int64      `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
