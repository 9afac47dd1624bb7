package controllers

import (
	"net/http"
	"strings"

	"github.com/feria-cr/feria-backend/api/middleware"
	"github.com/feria-cr/feria-backend/api/responses"
	"github.com/feria-cr/feria-backend/api/validators"
	checkoutsvc "github.com/feria-cr/feria-backend/internal/checkout"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
	"github.com/feria-cr/feria-backend/pkg/types"
)

type placeOrderRequest struct {
	PaymentMethod   string        `json:"payment_method" validate:"required"`
	ShippingAddress types.JSONMap `json:"shipping_address" validate:"required"`
}

// CheckoutPlaceOrder converts the buyer's cart into a parent order and fans
// it out into per-vendor sub-orders.
func CheckoutPlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(body.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			BuyerID:         buyerID,
			ActorRole:       middleware.RoleFromContext(r.Context()),
			PaymentMethod:   method,
			ShippingAddress: body.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
