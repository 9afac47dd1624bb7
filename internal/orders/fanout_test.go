package orders

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

func TestApportionShipping(t *testing.T) {
	cases := []struct {
		name        string
		total       int64
		vendorSub   int64
		goodsSub    int64
		vendorCount int
		want        int64
	}{
		{"free shipping", 0, 2000, 7000, 2, 0},
		{"single vendor takes all", 450, 9000, 9000, 1, 450},
		{"proportional small share", 300, 2000, 7000, 2, 86},
		{"proportional large share", 300, 5000, 7000, 2, 214},
		{"zero goods subtotal", 300, 0, 0, 2, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := apportionShipping(tc.total, tc.vendorSub, tc.goodsSub, tc.vendorCount)
			if got != tc.want {
				t.Fatalf("apportionShipping(%d, %d, %d, %d) = %d, want %d",
					tc.total, tc.vendorSub, tc.goodsSub, tc.vendorCount, got, tc.want)
			}
		})
	}
}

func TestSubOrderCodeIsDeterministic(t *testing.T) {
	vendorID := uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000000")
	code := subOrderCode("FER-1001", vendorID)
	if code != "FER-1001-A1B2C3D4" {
		t.Fatalf("subOrderCode = %q", code)
	}
	if code != subOrderCode("FER-1001", vendorID) {
		t.Fatal("code must be stable across calls")
	}
	if !strings.HasPrefix(code, "FER-1001-") {
		t.Fatalf("code must keep the parent prefix: %q", code)
	}
}

func TestGroupItemsByVendor(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	nilVendor := uuid.Nil

	items := []models.BuyerOrderItem{
		{VendorID: &vendorA, Quantity: 2, TotalCents: 4000},
		{VendorID: &vendorA, Quantity: 1, TotalCents: 1500},
		{VendorID: &vendorB, Quantity: 3, TotalCents: 9000},
		{VendorID: nil, Quantity: 1, TotalCents: 500},
		{VendorID: &nilVendor, Quantity: 1, TotalCents: 700},
	}

	groups, unassigned := groupItemsByVendor(items)
	if unassigned != 2 {
		t.Fatalf("unassigned = %d, want 2", unassigned)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	a := groups[vendorA]
	if a == nil || a.subtotal != 5500 || a.units != 3 || len(a.items) != 2 {
		t.Fatalf("vendor A group: %+v", a)
	}
	b := groups[vendorB]
	if b == nil || b.subtotal != 9000 || b.units != 3 || len(b.items) != 1 {
		t.Fatalf("vendor B group: %+v", b)
	}
}

func TestSortedGroupsIsStable(t *testing.T) {
	groups := map[uuid.UUID]*vendorGroup{}
	for i := 0; i < 5; i++ {
		id := uuid.New()
		groups[id] = &vendorGroup{vendorID: id}
	}

	first := sortedGroups(groups)
	second := sortedGroups(groups)
	for i := range first {
		if first[i].vendorID != second[i].vendorID {
			t.Fatal("ordering must be deterministic")
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].vendorID.String() >= first[i].vendorID.String() {
			t.Fatal("groups must be sorted by vendor id")
		}
	}
}
