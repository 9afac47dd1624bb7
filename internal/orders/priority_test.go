package orders

import (
	"testing"
	"time"

	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/types"
)

func TestClassifyPriority(t *testing.T) {
	cfg := testOrdersConfig()

	cases := []struct {
		name       string
		totalCents int64
		itemCount  int
		want       enums.OrderPriority
	}{
		{"urgent at threshold", 500000, 1, enums.OrderPriorityUrgent},
		{"high by value", 150000, 1, enums.OrderPriorityHigh},
		{"high by item count", 20000, 5, enums.OrderPriorityHigh},
		{"value beats item count", 600000, 5, enums.OrderPriorityUrgent},
		{"normal", 50000, 2, enums.OrderPriorityNormal},
		{"low", 9000, 1, enums.OrderPriorityLow},
		{"just under normal", 49999, 1, enums.OrderPriorityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPriority(cfg, tc.totalCents, tc.itemCount)
			if got != tc.want {
				t.Fatalf("classifyPriority(%d, %d) = %s, want %s", tc.totalCents, tc.itemCount, got, tc.want)
			}
		})
	}
}

func itemWithCategory(category string) models.VendorOrderItem {
	return models.VendorOrderItem{Snapshot: types.ProductSnapshot{Category: category}}
}

func TestBuildTags(t *testing.T) {
	cfg := testOrdersConfig()
	// A Tuesday.
	day := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	items := []models.VendorOrderItem{
		itemWithCategory("Cerámica Artesanal"),
		itemWithCategory("textiles"),
		itemWithCategory("textiles"),
		itemWithCategory("textiles"),
		itemWithCategory("café"),
		itemWithCategory("café"),
	}

	tags := buildTags(cfg, enums.PaymentMethodSinpe, 120000, len(items), items, day)

	want := []string{
		"payment-sinpe",
		"bulk-order",
		"category-café",
		"category-cerámica-artesanal",
		"category-textiles",
		"high-value",
		"day-tuesday",
	}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags[%d] = %q, want %q (full: %v)", i, tags[i], want[i], tags)
		}
	}
}

func TestBuildTagsSingleCheapItem(t *testing.T) {
	cfg := testOrdersConfig()
	day := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC) // Saturday

	tags := buildTags(cfg, enums.PaymentMethodCash, 8000, 1, []models.VendorOrderItem{itemWithCategory("")}, day)

	want := []string{"payment-cash", "single-item", "low-value", "day-saturday"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}
