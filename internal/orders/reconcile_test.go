package orders

import (
	"testing"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

func family(statuses ...enums.VendorOrderStatus) []models.VendorOrder {
	out := make([]models.VendorOrder, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, models.VendorOrder{Status: status})
	}
	return out
}

func TestDeriveParentStatus(t *testing.T) {
	cases := []struct {
		name    string
		current enums.BuyerOrderStatus
		subs    []models.VendorOrder
		want    enums.BuyerOrderStatus
	}{
		{
			"all delivered",
			enums.BuyerOrderStatusShipped,
			family(enums.VendorOrderStatusDelivered, enums.VendorOrderStatusDelivered),
			enums.BuyerOrderStatusDelivered,
		},
		{
			"slowest vendor wins",
			enums.BuyerOrderStatusPending,
			family(enums.VendorOrderStatusDelivered, enums.VendorOrderStatusConfirmed, enums.VendorOrderStatusShipped),
			enums.BuyerOrderStatusConfirmed,
		},
		{
			"one cancelled pins the parent",
			enums.BuyerOrderStatusProcessing,
			family(enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCancelled),
			enums.BuyerOrderStatusCancelled,
		},
		{
			"delayed propagates when weakest",
			enums.BuyerOrderStatusConfirmed,
			family(enums.VendorOrderStatusDelayed, enums.VendorOrderStatusShipped),
			enums.BuyerOrderStatusDelayed,
		},
		{
			"pending wins a tie with delayed",
			enums.BuyerOrderStatusConfirmed,
			family(enums.VendorOrderStatusDelayed, enums.VendorOrderStatusPending),
			enums.BuyerOrderStatusPending,
		},
		{
			"delayed parent recovers",
			enums.BuyerOrderStatusDelayed,
			family(enums.VendorOrderStatusShipped, enums.VendorOrderStatusShipped),
			enums.BuyerOrderStatusShipped,
		},
		{
			"unknown status counts as pending",
			enums.BuyerOrderStatusConfirmed,
			family(enums.VendorOrderStatus("limbo"), enums.VendorOrderStatusDelivered),
			enums.BuyerOrderStatusPending,
		},
		{
			"no sub-orders keeps current",
			enums.BuyerOrderStatusPending,
			nil,
			enums.BuyerOrderStatusPending,
		},
		{
			"single vendor mirrors it",
			enums.BuyerOrderStatusPending,
			family(enums.VendorOrderStatusReadyToShip),
			enums.BuyerOrderStatusReadyToShip,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := deriveParentStatus(tc.current, tc.subs)
			if got != tc.want {
				t.Fatalf("deriveParentStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRankOfUnknownIsPending(t *testing.T) {
	if rankOf(enums.VendorOrderStatusDelayed) != statusRank[enums.VendorOrderStatusPending] {
		t.Fatal("delayed must rank as pending")
	}
	if rankOf(enums.VendorOrderStatus("???")) != unknownStatusRank {
		t.Fatal("unknown must rank as pending")
	}
}
