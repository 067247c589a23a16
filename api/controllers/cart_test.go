package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/api/middleware"
	cartsvc "github.com/reyes-labs/storefront-backend/internal/cart"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
)

type stubCartService struct {
	summary *cartsvc.Summary
	addErr  error
}

func (s stubCartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (s stubCartService) Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (s stubCartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (s stubCartService) Items(ctx context.Context, userID uuid.UUID) ([]cartsvc.Line, error) {
	return s.summary.Lines, nil
}

func (s stubCartService) Summary(ctx context.Context, userID uuid.UUID) (*cartsvc.Summary, error) {
	return s.summary, nil
}

func (s stubCartService) ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return nil
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithUser(req.Context(), uuid.NewString(), "pepper", false)
	return req.WithContext(ctx)
}

func oneMugSummary() *cartsvc.Summary {
	mug := models.Product{
		ID:    uuid.New(),
		Name:  "Enamel Mug",
		Slug:  "enamel-mug",
		Price: decimal.RequireFromString("8.00"),
		Stock: 10,
	}
	return &cartsvc.Summary{
		Lines: []cartsvc.Line{{Product: mug, Quantity: 2, LineTotal: decimal.RequireFromString("16.00")}},
		Total: decimal.RequireFromString("16.00"),
	}
}

func TestCartFetchSuccess(t *testing.T) {
	handler := CartFetch(stubCartService{summary: oneMugSummary()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(envelope.Data.Lines))
	}
	if !envelope.Data.Total.Equal(decimal.RequireFromString("16.00")) {
		t.Fatalf("unexpected total: %s", envelope.Data.Total)
	}
}

func TestCartFetchMissingUserContext(t *testing.T) {
	handler := CartFetch(stubCartService{summary: oneMugSummary()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddReturnsRefreshedCart(t *testing.T) {
	handler := CartAdd(stubCartService{summary: oneMugSummary()}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartAddRejectsZeroQuantity(t *testing.T) {
	handler := CartAdd(stubCartService{summary: oneMugSummary()}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddInsufficientStock(t *testing.T) {
	stockErr := pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	handler := CartAdd(stubCartService{summary: oneMugSummary(), addErr: stockErr}, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":99}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
