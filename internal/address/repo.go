package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reyes-labs/storefront-backend/pkg/db/models"
)

// AddressRepository defines the persistence surface for shipping addresses.
type AddressRepository interface {
	WithTx(tx *gorm.DB) AddressRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShippingAddress, error)
	Upsert(ctx context.Context, addr *models.ShippingAddress) (*models.ShippingAddress, error)
}

// Repository is the GORM-backed shipping address repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's single saved address.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShippingAddress, error) {
	var addr models.ShippingAddress
	if err := r.db.WithContext(ctx).First(&addr, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// Upsert inserts the row or overwrites the existing one for the user.
func (r *Repository) Upsert(ctx context.Context, addr *models.ShippingAddress) (*models.ShippingAddress, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"full_name", "email", "address1", "address2",
				"city", "state", "zipcode", "country", "updated_at",
			}),
		}).
		Create(addr).Error
	if err != nil {
		return nil, err
	}
	return addr, nil
}
