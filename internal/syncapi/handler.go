package syncapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reyes-labs/storefront-backend/api/middleware"
	"github.com/reyes-labs/storefront-backend/api/responses"
	"github.com/reyes-labs/storefront-backend/api/validators"
	"github.com/reyes-labs/storefront-backend/pkg/config"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/metrics"
)

type addCartItemRequest struct {
	Username  string    `json:"username" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// NewHandler builds the sync API router. The cart and order paths keep the
// username-addressed shape the original surface exposed.
func NewHandler(
	cfg *config.Config,
	logg *logger.Logger,
	svc *Service,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	})

	r.Get("/cart/{username}", func(w http.ResponseWriter, r *http.Request) {
		lines, err := svc.CartByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	})

	r.Post("/cart/add", func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.AddCartItem(r.Context(), payload.Username, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	})

	r.Delete("/cart/remove/{username}/{productId}", func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveCartItem(r.Context(), chi.URLParam(r, "username"), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	})

	r.Get("/orders/{username}", func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.OrdersByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			// surface every failure as a structured error body rather
			// than letting any edge case escape as a bare 500
			if pkgerrors.As(err) == nil {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	})

	r.Post("/sync/events", func(w http.ResponseWriter, r *http.Request) {
		var delivery Delivery
		if err := validators.DecodeJSONBody(r, &delivery); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if key := r.Header.Get("X-Idempotency-Key"); key != "" && key != delivery.Payload.EventID {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "idempotency key does not match event id"))
			return
		}
		if err := svc.ApplyEvent(r.Context(), delivery); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "applied"})
	})

	return r
}
