package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

// BuyerOrderFilters narrows buyer-facing order listings.
type BuyerOrderFilters struct {
	Status *enums.BuyerOrderStatus
	Since  *time.Time
}

// VendorOrderFilters narrows seller-facing order listings.
type VendorOrderFilters struct {
	Status   *enums.VendorOrderStatus
	Priority *enums.OrderPriority
	Since    *time.Time
	Search   string
}

// BuyerOrderList is a cursor page of parent orders.
type BuyerOrderList struct {
	Orders     []models.BuyerOrder `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// VendorOrderList is a cursor page of sub-orders.
type VendorOrderList struct {
	Orders     []models.VendorOrder `json:"orders"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// FanOutInput identifies the parent order to split and who asked for it.
type FanOutInput struct {
	BuyerOrderID uuid.UUID
	ActorUserID  uuid.UUID
	ActorRole    string
}

// VendorFailure records one vendor group that could not be materialized.
// The rest of the fan-out proceeds regardless.
type VendorFailure struct {
	VendorID uuid.UUID `json:"vendor_id"`
	Reason   string    `json:"reason"`
}

// FanOutResult summarizes a fan-out pass. Existing counts sub-orders found
// from an earlier pass, so re-running the operation is safe.
type FanOutResult struct {
	BuyerOrderID    uuid.UUID              `json:"buyer_order_id"`
	Created         []models.VendorOrder   `json:"created"`
	Existing        []models.VendorOrder   `json:"existing"`
	Failures        []VendorFailure        `json:"failures,omitempty"`
	UnassignedItems int                    `json:"unassigned_items"`
	ParentStatus    enums.BuyerOrderStatus `json:"parent_status"`
}

// UpdateStatusInput carries a seller's status change for one sub-order.
type UpdateStatusInput struct {
	VendorOrderID  uuid.UUID
	Status         enums.VendorOrderStatus
	Note           string
	TrackingNumber string
	ActorUserID    uuid.UUID
	ActorStoreID   uuid.UUID
	ActorRole      string
}

// UpdateStatusResult reports the sub-order after the change and whether the
// parent's derived status moved.
type UpdateStatusResult struct {
	VendorOrder   *models.VendorOrder    `json:"vendor_order"`
	ParentStatus  enums.BuyerOrderStatus `json:"parent_status"`
	ParentChanged bool                   `json:"parent_changed"`
}

// SubOrderCreatedEvent is the payload emitted for each materialized sub-order.
type SubOrderCreatedEvent struct {
	VendorOrderID uuid.UUID           `json:"vendor_order_id"`
	BuyerOrderID  uuid.UUID           `json:"buyer_order_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	TotalCents    int64               `json:"total_cents"`
	Priority      enums.OrderPriority `json:"priority"`
}

// FanOutCompletedEvent summarizes the whole pass on the parent aggregate.
type FanOutCompletedEvent struct {
	BuyerOrderID    uuid.UUID `json:"buyer_order_id"`
	CreatedCount    int       `json:"created_count"`
	ExistingCount   int       `json:"existing_count"`
	FailureCount    int       `json:"failure_count"`
	UnassignedItems int       `json:"unassigned_items"`
}

// SubOrderStatusChangedEvent is emitted whenever a sub-order transitions.
type SubOrderStatusChangedEvent struct {
	VendorOrderID uuid.UUID               `json:"vendor_order_id"`
	BuyerOrderID  uuid.UUID               `json:"buyer_order_id"`
	VendorID      uuid.UUID               `json:"vendor_id"`
	From          enums.VendorOrderStatus `json:"from"`
	To            enums.VendorOrderStatus `json:"to"`
}

// ParentStatusChangedEvent is emitted when reconciliation rewrites the parent.
type ParentStatusChangedEvent struct {
	BuyerOrderID uuid.UUID              `json:"buyer_order_id"`
	From         enums.BuyerOrderStatus `json:"from"`
	To           enums.BuyerOrderStatus `json:"to"`
}
