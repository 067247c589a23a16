package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/reyes-labs/storefront-backend/api/middleware"
	"github.com/reyes-labs/storefront-backend/api/responses"
	"github.com/reyes-labs/storefront-backend/api/validators"
	addresssvc "github.com/reyes-labs/storefront-backend/internal/address"
	checkoutsvc "github.com/reyes-labs/storefront-backend/internal/checkout"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
)

type billingResponse struct {
	Token string       `json:"token"`
	Cart  cartResponse `json:"cart"`
}

type placeRequest struct {
	Token string `json:"token" validate:"required"`
}

// CheckoutBilling captures the shipping details and opens the placement
// window. Guests are welcome; authenticated callers also get their saved
// address refreshed.
func CheckoutBilling(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload addresssvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		capture, err := svc.CaptureBilling(r.Context(), optionalUser(r), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, billingResponse{
			Token: capture.Token,
			Cart:  newCartResponse(capture.Summary),
		})
	}
}

// CheckoutPlace turns a captured draft into an order.
func CheckoutPlace(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload placeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), optionalUser(r), payload.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func optionalUser(r *http.Request) *uuid.UUID {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}
