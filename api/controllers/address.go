package controllers

import (
	"net/http"

	"github.com/reyes-labs/storefront-backend/api/responses"
	"github.com/reyes-labs/storefront-backend/api/validators"
	addresssvc "github.com/reyes-labs/storefront-backend/internal/address"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
)

// AddressGet returns the caller's saved shipping address.
func AddressGet(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}

// AddressPut overwrites the caller's saved shipping address.
func AddressPut(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addresssvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Upsert(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}
