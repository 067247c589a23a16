package controllers

import (
	"net/http"

	"github.com/reyes-labs/storefront-backend/api/responses"
	ordersvc "github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
)

// MyOrders lists the caller's own orders, newest first.
func MyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}
