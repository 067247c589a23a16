package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
)

type stubOrdersService struct {
	orders map[uuid.UUID]*models.Order

	shippedArg bool
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *stubOrdersService) ListShipped(ctx context.Context) ([]models.Order, error) {
	return s.filter(true), nil
}

func (s *stubOrdersService) ListUnshipped(ctx context.Context) ([]models.Order, error) {
	return s.filter(false), nil
}

func (s *stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID != nil && *order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrdersService) SetShipped(ctx context.Context, orderID uuid.UUID, shipped bool) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	s.shippedArg = shipped
	order.Shipped = shipped
	if shipped {
		now := time.Now()
		order.ShippedAt = &now
	} else {
		order.ShippedAt = nil
	}
	return order, nil
}

func (s *stubOrdersService) filter(shipped bool) []models.Order {
	var out []models.Order
	for _, order := range s.orders {
		if order.Shipped == shipped {
			out = append(out, *order)
		}
	}
	return out
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newOrdersStub(orders ...*models.Order) *stubOrdersService {
	svc := &stubOrdersService{orders: map[uuid.UUID]*models.Order{}}
	for _, order := range orders {
		svc.orders[order.ID] = order
	}
	return svc
}

func sampleOrder(shipped bool) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		FullName:        "Pepper Potts",
		Email:           "pepper@example.com",
		ShippingAddress: "10880 Malibu Point\nMalibu\nCA\n90265\nUSA",
		AmountPaid:      decimal.RequireFromString("16.00"),
		Shipped:         shipped,
	}
	if shipped {
		now := time.Now()
		order.ShippedAt = &now
	}
	return order
}

func TestAdminShippedOrdersSplit(t *testing.T) {
	shipped := sampleOrder(true)
	pending := sampleOrder(false)
	svc := newOrdersStub(shipped, pending)

	resp := httptest.NewRecorder()
	AdminShippedOrders(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/api/admin/v1/orders/shipped", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var shippedEnvelope struct {
		Data []orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&shippedEnvelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(shippedEnvelope.Data) != 1 || shippedEnvelope.Data[0].ID != shipped.ID {
		t.Fatalf("unexpected shipped list: %+v", shippedEnvelope.Data)
	}

	resp = httptest.NewRecorder()
	AdminUnshippedOrders(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/api/admin/v1/orders/unshipped", ""))
	var pendingEnvelope struct {
		Data []orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pendingEnvelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(pendingEnvelope.Data) != 1 || pendingEnvelope.Data[0].ID != pending.ID {
		t.Fatalf("unexpected unshipped list: %+v", pendingEnvelope.Data)
	}
}

func TestAdminOrderDetailNotFound(t *testing.T) {
	handler := AdminOrderDetail(newOrdersStub(), nil)

	req := withURLParam(authedRequest(http.MethodGet, "/api/admin/v1/orders/x", ""), "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminSetShippedToggles(t *testing.T) {
	order := sampleOrder(false)
	svc := newOrdersStub(order)
	handler := AdminSetShipped(svc, nil)

	req := withURLParam(authedRequest(http.MethodPost, "/api/admin/v1/orders/x/shipped", `{"shipped":true}`), "orderId", order.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.shippedArg {
		t.Fatalf("expected shipped=true to reach the service")
	}

	// shipped=false must survive the required validation on the pointer field
	req = withURLParam(authedRequest(http.MethodPost, "/api/admin/v1/orders/x/shipped", `{"shipped":false}`), "orderId", order.ID.String())
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.shippedArg {
		t.Fatalf("expected shipped=false to reach the service")
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ShippedAt != nil {
		t.Fatalf("expected shipped_at cleared, got %v", envelope.Data.ShippedAt)
	}
}

func TestAdminSetShippedMissingBody(t *testing.T) {
	order := sampleOrder(false)
	handler := AdminSetShipped(newOrdersStub(order), nil)

	req := withURLParam(authedRequest(http.MethodPost, "/api/admin/v1/orders/x/shipped", `{}`), "orderId", order.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
