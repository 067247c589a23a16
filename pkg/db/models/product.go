package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog listing shoppers add to their carts.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null;default:''"`
	ImageURL    *string         `gorm:"column:image_url"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2);not null;default:0"`
	IsSale      bool            `gorm:"column:is_sale;not null;default:false"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice is the sale price while the product is on sale, else the
// regular price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.IsSale {
		return p.SalePrice
	}
	return p.Price
}
