package orders

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

// classifyPriority buckets a sub-order by total value and line-item count.
// The thresholds are policy, so they come from configuration.
func classifyPriority(cfg config.OrdersConfig, totalCents int64, itemCount int) enums.OrderPriority {
	switch {
	case totalCents >= int64(cfg.PriorityUrgentTotal):
		return enums.OrderPriorityUrgent
	case totalCents >= int64(cfg.PriorityHighTotal):
		return enums.OrderPriorityHigh
	case itemCount >= cfg.PriorityHighItems:
		return enums.OrderPriorityHigh
	case totalCents >= int64(cfg.PriorityNormalTotal):
		return enums.OrderPriorityNormal
	default:
		return enums.OrderPriorityLow
	}
}

// buildTags derives the seller-triage tags for one sub-order. Category tags
// come from the item snapshots, deduplicated and sorted for stable output.
func buildTags(cfg config.OrdersConfig, method enums.PaymentMethod, totalCents int64, itemCount int, items []models.VendorOrderItem, now time.Time) []string {
	tags := []string{fmt.Sprintf("payment-%s", method)}

	if itemCount >= cfg.TagBulkItems {
		tags = append(tags, "bulk-order")
	}
	if itemCount == 1 {
		tags = append(tags, "single-item")
	}

	seen := map[string]bool{}
	categories := []string{}
	for _, item := range items {
		cat := strings.TrimSpace(strings.ToLower(item.Snapshot.Category))
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		tags = append(tags, "category-"+slugifyTag(cat))
	}

	if totalCents >= int64(cfg.TagHighValueTotal) {
		tags = append(tags, "high-value")
	}
	if totalCents <= int64(cfg.TagLowValueTotal) {
		tags = append(tags, "low-value")
	}

	tags = append(tags, "day-"+strings.ToLower(now.Weekday().String()))
	return tags
}

func slugifyTag(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
}
