package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is the single saved mailing address per user, overwritten
// on each billing capture.
type ShippingAddress struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_shipping_addresses_user"`
	FullName  string    `gorm:"column:full_name;not null"`
	Email     string    `gorm:"column:email;not null"`
	Address1  string    `gorm:"column:address1;not null"`
	Address2  string    `gorm:"column:address2;not null;default:''"`
	City      string    `gorm:"column:city;not null"`
	State     string    `gorm:"column:state;not null"`
	Zipcode   string    `gorm:"column:zipcode;not null"`
	Country   string    `gorm:"column:country;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
