package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reyes-labs/storefront-backend/internal/cart"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
)

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsAdmin  bool      `json:"is_admin"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}
}

type productResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	ImageURL       *string         `json:"image_url,omitempty"`
	Price          decimal.Decimal `json:"price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	IsSale         bool            `json:"is_sale"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
}

func newProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:             product.ID,
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		ImageURL:       product.ImageURL,
		Price:          product.Price,
		SalePrice:      product.SalePrice,
		IsSale:         product.IsSale,
		EffectivePrice: product.EffectivePrice(),
		Stock:          product.Stock,
	}
}

func newProductListResponse(products []models.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, product := range products {
		out = append(out, newProductResponse(product))
	}
	return out
}

type cartLineResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

func newCartResponse(summary *cart.Summary) cartResponse {
	out := cartResponse{Lines: []cartLineResponse{}, Total: summary.Total}
	for _, line := range summary.Lines {
		out.Lines = append(out.Lines, cartLineResponse{
			Product:   newProductResponse(line.Product),
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		})
	}
	return out
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          *uuid.UUID          `json:"user_id,omitempty"`
	FullName        string              `json:"full_name"`
	Email           string              `json:"email"`
	ShippingAddress string              `json:"shipping_address"`
	AmountPaid      decimal.Decimal     `json:"amount_paid"`
	Shipped         bool                `json:"shipped"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		FullName:        order.FullName,
		Email:           order.Email,
		ShippingAddress: order.ShippingAddress,
		AmountPaid:      order.AmountPaid,
		Shipped:         order.Shipped,
		ShippedAt:       order.ShippedAt,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}

func newOrderListResponse(list []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, newOrderResponse(&list[i]))
	}
	return out
}

type addressResponse struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zipcode  string `json:"zipcode"`
	Country  string `json:"country"`
}

func newAddressResponse(addr *models.ShippingAddress) addressResponse {
	return addressResponse{
		FullName: addr.FullName,
		Email:    addr.Email,
		Address1: addr.Address1,
		Address2: addr.Address2,
		City:     addr.City,
		State:    addr.State,
		Zipcode:  addr.Zipcode,
		Country:  addr.Country,
	}
}
