package analytics

import (
	"time"

	"github.com/google/uuid"
)

// DashboardQuery carries the input parameters for seller dashboard queries.
type DashboardQuery struct {
	VendorID uuid.UUID
	Start    time.Time
	End      time.Time
}

// TimeSeriesPoint is a single date/value pair.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue is a top-N entry such as a product or a status bucket.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Summary holds the headline KPIs for a vendor over a window.
type Summary struct {
	OrdersTotal        int64   `json:"orders_total"`
	DeliveredCount     int64   `json:"delivered_count"`
	OpenCount          int64   `json:"open_count"`
	RevenueCents       int64   `json:"revenue_cents"`
	ItemsSold          int64   `json:"items_sold"`
	AvgOrderValueCents float64 `json:"avg_order_value_cents"`
}
