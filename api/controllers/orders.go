package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feria-cr/feria-backend/api/middleware"
	"github.com/feria-cr/feria-backend/api/responses"
	"github.com/feria-cr/feria-backend/api/validators"
	analyticssvc "github.com/feria-cr/feria-backend/internal/analytics"
	ordersvc "github.com/feria-cr/feria-backend/internal/orders"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

// BuyerListOrders serves the buyer's parent order history.
func BuyerListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseBuyerOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListBuyerOrders(r.Context(), buyerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// BuyerGetOrder serves one parent order with its sub-orders.
func BuyerGetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetBuyerOrder(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// SellerListOrders serves the seller's sub-order queue.
func SellerListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseVendorOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListVendorOrders(r.Context(), vendorID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// SellerGetOrder serves one sub-order with its items and status history.
func SellerGetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetVendorOrder(r.Context(), vendorID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

type updateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	Note           string `json:"note,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// SellerUpdateOrderStatus moves a sub-order along its lifecycle and reports
// whether the parent's derived status moved with it.
func SellerUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseVendorOrderStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		result, err := svc.UpdateSubOrderStatus(r.Context(), ordersvc.UpdateStatusInput{
			VendorOrderID:  orderID,
			Status:         status,
			Note:           strings.TrimSpace(body.Note),
			TrackingNumber: strings.TrimSpace(body.TrackingNumber),
			ActorUserID:    userID,
			ActorStoreID:   vendorID,
			ActorRole:      middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type sellerOrderStats struct {
	Summary  *analyticssvc.Summary     `json:"summary"`
	ByStatus []analyticssvc.LabelValue `json:"by_status"`
}

// SellerOrderStats summarizes the seller's order book over a date window.
func SellerOrderStats(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		query, err := dashboardQueryFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		byStatus, err := svc.StatusBreakdown(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sellerOrderStats{Summary: summary, ByStatus: byStatus})
	}
}

func parseBuyerOrderFilters(r *http.Request) (ordersvc.BuyerOrderFilters, error) {
	var filters ordersvc.BuyerOrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseBuyerOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		filters.Status = &status
	}

	since, err := parseQueryTime(r, "since")
	if err != nil {
		return filters, err
	}
	filters.Since = since

	return filters, nil
}

func parseVendorOrderFilters(r *http.Request) (ordersvc.VendorOrderFilters, error) {
	var filters ordersvc.VendorOrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseVendorOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		filters.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
		priority, err := enums.ParseOrderPriority(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		filters.Priority = &priority
	}

	since, err := parseQueryTime(r, "since")
	if err != nil {
		return filters, err
	}
	filters.Since = since
	filters.Search = strings.TrimSpace(r.URL.Query().Get("q"))

	return filters, nil
}

// parseQueryTime accepts RFC3339 timestamps or plain dates.
func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp must be RFC3339 or YYYY-MM-DD").WithDetails(map[string]any{"field": key})
	}
	return &t, nil
}

// dashboardQueryFromRequest builds an analytics window scoped to the
// seller's store from the optional start/end query parameters.
func dashboardQueryFromRequest(r *http.Request) (analyticssvc.DashboardQuery, error) {
	vendorID, err := actorStoreID(r)
	if err != nil {
		return analyticssvc.DashboardQuery{}, err
	}

	query := analyticssvc.DashboardQuery{VendorID: vendorID}

	if start, err := parseQueryTime(r, "start"); err != nil {
		return analyticssvc.DashboardQuery{}, err
	} else if start != nil {
		query.Start = *start
	}
	if end, err := parseQueryTime(r, "end"); err != nil {
		return analyticssvc.DashboardQuery{}, err
	} else if end != nil {
		query.End = *end
	}

	return query, nil
}
