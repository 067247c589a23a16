package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reyes-labs/storefront-backend/api/controllers"
	"github.com/reyes-labs/storefront-backend/api/middleware"
	addresssvc "github.com/reyes-labs/storefront-backend/internal/address"
	authsvc "github.com/reyes-labs/storefront-backend/internal/auth"
	cartsvc "github.com/reyes-labs/storefront-backend/internal/cart"
	catalogsvc "github.com/reyes-labs/storefront-backend/internal/catalog"
	checkoutsvc "github.com/reyes-labs/storefront-backend/internal/checkout"
	ordersvc "github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/pkg/config"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/metrics"
)

// RouterParams carries everything the storefront router wires together.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Ready   map[string]controllers.Pinger
	Metrics *metrics.HTTPMetrics
	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler

	AuthService     authsvc.Service
	CatalogService  catalogsvc.Service
	CartService     cartsvc.Service
	AddressService  addresssvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready))
	})

	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(p.CatalogService, logg))
		r.Get("/{productId}", controllers.ProductDetail(p.CatalogService, logg))
	})

	// guests check out too, so auth is optional here
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Post("/billing", controllers.CheckoutBilling(p.CheckoutService, logg))
		r.Post("/place", controllers.CheckoutPlace(p.CheckoutService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.CartService, logg))
			r.Post("/", controllers.CartAdd(p.CartService, logg))
			r.Patch("/{productId}", controllers.CartUpdate(p.CartService, logg))
			r.Delete("/{productId}", controllers.CartRemove(p.CartService, logg))
		})

		r.Route("/address", func(r chi.Router) {
			r.Get("/", controllers.AddressGet(p.AddressService, logg))
			r.Put("/", controllers.AddressPut(p.AddressService, logg))
		})

		r.Get("/orders", controllers.MyOrders(p.OrdersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/shipped", controllers.AdminShippedOrders(p.OrdersService, logg))
			r.Get("/unshipped", controllers.AdminUnshippedOrders(p.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(p.OrdersService, logg))
			r.Post("/{orderId}/shipped", controllers.AdminSetShipped(p.OrdersService, logg))
		})
	})

	return r
}
