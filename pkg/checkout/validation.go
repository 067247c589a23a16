package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
)

// StockValidationInput describes the data required to verify a line's quantity
// against the product's available stock.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Stock       int
	Requested   int
}

// StockViolationDetail exposes the data returned to callers when a line
// cannot be satisfied.
type StockViolationDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Stock       int       `json:"stock"`
	Requested   int       `json:"requested"`
}

// ValidateStock ensures every provided line requests at least one unit and no
// more than the product has in stock.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Requested < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if item.Requested > item.Stock {
			violations = append(violations, StockViolationDetail{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Stock:       item.Stock,
				Requested:   item.Requested,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}

	msg := "insufficient stock for product"
	if len(violations) > 1 {
		msg = fmt.Sprintf("insufficient stock for %d products", len(violations))
	}
	return pkgerrors.New(pkgerrors.CodeConflict, msg).
		WithDetails(map[string]any{"violations": violations})
}
