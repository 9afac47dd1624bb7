package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBuyerOrder  OutboxAggregateType = "buyer_order"
	AggregateVendorOrder OutboxAggregateType = "vendor_order"
	AggregateUser        OutboxAggregateType = "user"
	AggregateStore       OutboxAggregateType = "store"
	AggregateProduct     OutboxAggregateType = "product"
	AggregateReview      OutboxAggregateType = "review"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBuyerOrder,
	AggregateVendorOrder,
	AggregateUser,
	AggregateStore,
	AggregateProduct,
	AggregateReview,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

func (a OutboxAggregateType) String() string {
	return string(a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPlaced           OutboxEventType = "order_placed"
	EventOrderFannedOut        OutboxEventType = "order_fanned_out"
	EventSubOrderCreated       OutboxEventType = "sub_order_created"
	EventSubOrderStatusChanged OutboxEventType = "sub_order_status_changed"
	EventParentStatusChanged   OutboxEventType = "parent_status_changed"
	EventOrderDelivered        OutboxEventType = "order_delivered"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventUserRegistered        OutboxEventType = "user_registered"
	EventPasswordResetIssued   OutboxEventType = "password_reset_issued"
	EventStoreCreated          OutboxEventType = "store_created"
	EventProductCreated        OutboxEventType = "product_created"
	EventReviewSubmitted       OutboxEventType = "review_submitted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderFannedOut,
	EventSubOrderCreated,
	EventSubOrderStatusChanged,
	EventParentStatusChanged,
	EventOrderDelivered,
	EventOrderCancelled,
	EventUserRegistered,
	EventPasswordResetIssued,
	EventStoreCreated,
	EventProductCreated,
	EventReviewSubmitted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func (e OutboxEventType) String() string {
	return string(e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
