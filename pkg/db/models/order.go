package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is created exactly once per successful checkout. The shipping
// address is denormalized free text so later address edits never change it.
// UserID is nil for guest checkouts.
type Order struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	FullName        string          `gorm:"column:full_name;not null"`
	Email           string          `gorm:"column:email;not null"`
	ShippingAddress string          `gorm:"column:shipping_address;not null"`
	AmountPaid      decimal.Decimal `gorm:"column:amount_paid;type:numeric(10,2);not null"`
	Shipped         bool            `gorm:"column:shipped;not null;default:false"`
	ShippedAt       *time.Time      `gorm:"column:shipped_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
