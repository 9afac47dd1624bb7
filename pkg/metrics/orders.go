package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks fan-out and reconciliation activity.
type OrderMetrics struct {
	subOrdersCreated  *prometheus.CounterVec
	fanOutFailures    prometheus.Counter
	statusTransitions *prometheus.CounterVec
	parentReconciled  prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	subOrders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_fanout_suborders_total",
		Help: "Sub-orders created by the fan-out engine.",
	}, []string{"priority"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_fanout_vendor_failures_total",
		Help: "Vendor groups that failed during fan-out.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Sub-order status transitions applied.",
	}, []string{"to"})
	reconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_parent_reconciled_total",
		Help: "Parent orders whose derived status changed.",
	})
	reg.MustRegister(subOrders, failures, transitions, reconciled)
	return &OrderMetrics{
		subOrdersCreated:  subOrders,
		fanOutFailures:    failures,
		statusTransitions: transitions,
		parentReconciled:  reconciled,
	}
}

// IncSubOrderCreated counts one created sub-order by priority.
func (o *OrderMetrics) IncSubOrderCreated(priority string) {
	if o == nil || o.subOrdersCreated == nil {
		return
	}
	o.subOrdersCreated.WithLabelValues(normalizeLabel(priority)).Inc()
}

// IncFanOutFailure counts one vendor group that failed to materialize.
func (o *OrderMetrics) IncFanOutFailure() {
	if o == nil || o.fanOutFailures == nil {
		return
	}
	o.fanOutFailures.Inc()
}

// IncStatusTransition counts a sub-order transition into the given status.
func (o *OrderMetrics) IncStatusTransition(to string) {
	if o == nil || o.statusTransitions == nil {
		return
	}
	o.statusTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncParentReconciled counts a parent status write.
func (o *OrderMetrics) IncParentReconciled() {
	if o == nil || o.parentReconciled == nil {
		return
	}
	o.parentReconciled.Inc()
}
