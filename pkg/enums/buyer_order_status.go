package enums

import "fmt"

// BuyerOrderStatus is the parent order status derived from its sub-orders.
type BuyerOrderStatus string

const (
	BuyerOrderStatusPending     BuyerOrderStatus = "pending"
	BuyerOrderStatusConfirmed   BuyerOrderStatus = "confirmed"
	BuyerOrderStatusProcessing  BuyerOrderStatus = "processing"
	BuyerOrderStatusReadyToShip BuyerOrderStatus = "ready_to_ship"
	BuyerOrderStatusShipped     BuyerOrderStatus = "shipped"
	BuyerOrderStatusDelivered   BuyerOrderStatus = "delivered"
	BuyerOrderStatusDelayed     BuyerOrderStatus = "delayed"
	BuyerOrderStatusCancelled   BuyerOrderStatus = "cancelled"
)

var validBuyerOrderStatuses = []BuyerOrderStatus{
	BuyerOrderStatusPending,
	BuyerOrderStatusConfirmed,
	BuyerOrderStatusProcessing,
	BuyerOrderStatusReadyToShip,
	BuyerOrderStatusShipped,
	BuyerOrderStatusDelivered,
	BuyerOrderStatusDelayed,
	BuyerOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (b BuyerOrderStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BuyerOrderStatus.
func (b BuyerOrderStatus) IsValid() bool {
	for _, candidate := range validBuyerOrderStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBuyerOrderStatus converts raw input into a BuyerOrderStatus.
func ParseBuyerOrderStatus(value string) (BuyerOrderStatus, error) {
	for _, candidate := range validBuyerOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buyer order status %q", value)
}
