package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	addresssvc "github.com/reyes-labs/storefront-backend/internal/address"
	authsvc "github.com/reyes-labs/storefront-backend/internal/auth"
	cartsvc "github.com/reyes-labs/storefront-backend/internal/cart"
	catalogsvc "github.com/reyes-labs/storefront-backend/internal/catalog"
	checkoutsvc "github.com/reyes-labs/storefront-backend/internal/checkout"
	pkgauth "github.com/reyes-labs/storefront-backend/pkg/auth"
	"github.com/reyes-labs/storefront-backend/pkg/config"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/pagination"
)

type routeAuthStub struct{}

func (routeAuthStub) Register(ctx context.Context, input authsvc.RegisterInput) (*authsvc.Session, error) {
	return &authsvc.Session{Token: "t", User: &models.User{ID: uuid.New(), Username: input.Username}}, nil
}

func (routeAuthStub) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.Session, error) {
	return &authsvc.Session{Token: "t", User: &models.User{ID: uuid.New(), Username: input.Username}}, nil
}

type routeCatalogStub struct{}

func (routeCatalogStub) List(ctx context.Context) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (routeCatalogStub) Page(ctx context.Context, params pagination.Params) (*catalogsvc.Page, error) {
	return &catalogsvc.Page{Products: []models.Product{}}, nil
}

func (routeCatalogStub) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type routeCartStub struct{}

func (routeCartStub) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (routeCartStub) Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (routeCartStub) Remove(ctx context.Context, userID, productID uuid.UUID) error { return nil }

func (routeCartStub) Items(ctx context.Context, userID uuid.UUID) ([]cartsvc.Line, error) {
	return nil, nil
}

func (routeCartStub) Summary(ctx context.Context, userID uuid.UUID) (*cartsvc.Summary, error) {
	return &cartsvc.Summary{Total: decimal.Zero}, nil
}

func (routeCartStub) ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error { return nil }

type routeAddressStub struct{}

func (routeAddressStub) Upsert(ctx context.Context, userID uuid.UUID, input addresssvc.Input) (*models.ShippingAddress, error) {
	return &models.ShippingAddress{UserID: userID, City: input.City}, nil
}

func (routeAddressStub) Get(ctx context.Context, userID uuid.UUID) (*models.ShippingAddress, error) {
	return &models.ShippingAddress{UserID: userID}, nil
}

type routeCheckoutStub struct{}

func (routeCheckoutStub) CaptureBilling(ctx context.Context, userID *uuid.UUID, input addresssvc.Input) (*checkoutsvc.Capture, error) {
	return &checkoutsvc.Capture{Token: "draft-token", Summary: &cartsvc.Summary{Total: decimal.Zero}}, nil
}

func (routeCheckoutStub) Place(ctx context.Context, userID *uuid.UUID, token string) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), UserID: userID, AmountPaid: decimal.Zero}, nil
}

type routeOrdersStub struct{}

func (routeOrdersStub) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (routeOrdersStub) ListShipped(ctx context.Context) ([]models.Order, error)   { return nil, nil }
func (routeOrdersStub) ListUnshipped(ctx context.Context) ([]models.Order, error) { return nil, nil }

func (routeOrdersStub) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (routeOrdersStub) SetShipped(ctx context.Context, orderID uuid.UUID, shipped bool) (*models.Order, error) {
	return &models.Order{ID: orderID, Shipped: shipped}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "storefront-test"
	cfg.JWT.ExpirationMinutes = 15
	return cfg
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	router := NewRouter(RouterParams{
		Config:          cfg,
		Logger:          logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		AuthService:     routeAuthStub{},
		CatalogService:  routeCatalogStub{},
		CartService:     routeCartStub{},
		AddressService:  routeAddressStub{},
		CheckoutService: routeCheckoutStub{},
		OrdersService:   routeOrdersStub{},
	})
	return router, cfg
}

func mintToken(t *testing.T, cfg *config.Config, isAdmin bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "pepper",
		IsAdmin:  isAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/health/live", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("health live: expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Storefront-Env"); env != "test" {
		t.Fatalf("unexpected env header: %q", env)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/v1/products", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("products: expected 200 got %d", resp.Code)
	}
}

func TestCartRequiresAuth(t *testing.T) {
	router, cfg := newTestRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/api/v1/cart", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/v1/cart", "garbage.token.here", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with malformed token, got %d", resp.Code)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/v1/cart", mintToken(t, cfg, false), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminRoutesRequireRole(t *testing.T) {
	router, cfg := newTestRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/api/admin/v1/orders/unshipped", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/admin/v1/orders/unshipped", mintToken(t, cfg, false), "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.Code)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/admin/v1/orders/unshipped", mintToken(t, cfg, true), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutAllowsGuests(t *testing.T) {
	router, cfg := newTestRouter(t)

	body := `{
		"full_name": "Pepper Potts",
		"email": "pepper@example.com",
		"address1": "10880 Malibu Point",
		"city": "Malibu",
		"state": "CA",
		"zipcode": "90265",
		"country": "USA"
	}`

	resp := doRequest(t, router, http.MethodPost, "/api/v1/checkout/billing", "", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("guest billing: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(t, router, http.MethodPost, "/api/v1/checkout/place", "", `{"token":"draft-token"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("guest place: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	// a presented token must still be valid even on optional-auth routes
	resp = doRequest(t, router, http.MethodPost, "/api/v1/checkout/place", "garbage.token.here", `{"token":"draft-token"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", resp.Code)
	}

	resp = doRequest(t, router, http.MethodPost, "/api/v1/checkout/place", mintToken(t, cfg, false), `{"token":"draft-token"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("authed place: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}
