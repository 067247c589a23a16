package controllers

import (
	"net/http"

	"github.com/reyes-labs/storefront-backend/api/responses"
	"github.com/reyes-labs/storefront-backend/api/validators"
	authsvc "github.com/reyes-labs/storefront-backend/internal/auth"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
)

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// AuthRegister creates an account and signs the caller in.
func AuthRegister(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.RegisterInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token: session.Token,
			User:  newUserResponse(session.User),
		})
	}
}

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Token: session.Token,
			User:  newUserResponse(session.User),
		})
	}
}
