package orders

import (
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

// Sub-order statuses ordered by progress. The parent order can only be as far
// along as its least-advanced sub-order, so reconciliation takes the minimum
// rank. A cancelled sub-order pins the parent to cancelled. Delayed sits
// outside the rank order at pending level: it propagates to the parent only
// when no ranked sub-order shares the minimum.
const unknownStatusRank = 1

var statusRank = map[enums.VendorOrderStatus]int{
	enums.VendorOrderStatusCancelled:   0,
	enums.VendorOrderStatusPending:     1,
	enums.VendorOrderStatusConfirmed:   2,
	enums.VendorOrderStatusProcessing:  3,
	enums.VendorOrderStatusReadyToShip: 4,
	enums.VendorOrderStatusShipped:     5,
	enums.VendorOrderStatusDelivered:   6,
}

var rankToParentStatus = map[int]enums.BuyerOrderStatus{
	0: enums.BuyerOrderStatusCancelled,
	1: enums.BuyerOrderStatusPending,
	2: enums.BuyerOrderStatusConfirmed,
	3: enums.BuyerOrderStatusProcessing,
	4: enums.BuyerOrderStatusReadyToShip,
	5: enums.BuyerOrderStatusShipped,
	6: enums.BuyerOrderStatusDelivered,
}

func rankOf(status enums.VendorOrderStatus) int {
	if rank, ok := statusRank[status]; ok {
		return rank
	}
	return unknownStatusRank
}

// deriveParentStatus computes the weakest-link status across sub-orders.
// With no sub-orders the parent stays where it is.
func deriveParentStatus(current enums.BuyerOrderStatus, subOrders []models.VendorOrder) enums.BuyerOrderStatus {
	if len(subOrders) == 0 {
		return current
	}

	minRank := rankOf(subOrders[0].Status)
	for _, sub := range subOrders[1:] {
		if rank := rankOf(sub.Status); rank < minRank {
			minRank = rank
		}
	}

	ranked := false
	delayed := false
	for _, sub := range subOrders {
		if rankOf(sub.Status) != minRank {
			continue
		}
		if _, ok := statusRank[sub.Status]; ok {
			ranked = true
		} else if sub.Status == enums.VendorOrderStatusDelayed {
			delayed = true
		}
	}
	if delayed && !ranked {
		return enums.BuyerOrderStatusDelayed
	}
	return rankToParentStatus[minRank]
}
