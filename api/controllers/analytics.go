package controllers

import (
	"net/http"

	"github.com/feria-cr/feria-backend/api/responses"
	"github.com/feria-cr/feria-backend/api/validators"
	analyticssvc "github.com/feria-cr/feria-backend/internal/analytics"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

// AnalyticsSummary serves the seller dashboard headline numbers.
func AnalyticsSummary(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		responses.WriteSuccess(w, summary)
	}
}

// AnalyticsRevenue serves the delivered-revenue time series.
func AnalyticsRevenue(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		points, err := svc.RevenueByDay(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, points)
	}
}

// AnalyticsStatusBreakdown serves order counts grouped by status.
func AnalyticsStatusBreakdown(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		breakdown, err := svc.StatusBreakdown(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, breakdown)
	}
}

// AnalyticsTopProducts serves the best-selling items for the window.
func AnalyticsTopProducts(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		top, err := svc.TopProducts(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, top)
	}
}
