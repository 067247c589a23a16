package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemEvent mirrors a cart line after a mutation; Quantity is the
// resulting line quantity so replays converge on the same state.
type CartItemEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartItemRemovedEvent announces a deleted cart line.
type CartItemRemovedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
}

// OrderPlacedEvent carries the full order snapshot delivered to the sync API.
type OrderPlacedEvent struct {
	OrderID         uuid.UUID        `json:"order_id"`
	UserID          *uuid.UUID       `json:"user_id,omitempty"`
	FullName        string           `json:"full_name"`
	Email           string           `json:"email"`
	ShippingAddress string           `json:"shipping_address"`
	AmountPaid      decimal.Decimal  `json:"amount_paid"`
	Items           []OrderItemEvent `json:"items"`
}

// OrderItemEvent is one snapshotted line within an OrderPlacedEvent.
type OrderItemEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
