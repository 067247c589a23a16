package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
)

// Input carries the shipping address fields captured from the shopper.
type Input struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address1 string `json:"address1" validate:"required"`
	Address2 string `json:"address2"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Zipcode  string `json:"zipcode" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

// DenormalizedText renders the address as the multi-line snapshot stored on
// orders. Blank optional lines are dropped.
func (in Input) DenormalizedText() string {
	parts := []string{in.Address1}
	if in.Address2 != "" {
		parts = append(parts, in.Address2)
	}
	parts = append(parts, in.City, in.State, in.Zipcode, in.Country)
	return strings.Join(parts, "\n")
}

// Service manages the single saved shipping address per user.
type Service interface {
	Upsert(ctx context.Context, userID uuid.UUID, input Input) (*models.ShippingAddress, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.ShippingAddress, error)
}

type service struct {
	repo     AddressRepository
	validate *validator.Validate
}

// NewService builds the address service.
func NewService(repo AddressRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo, validate: validator.New()}, nil
}

// Upsert creates or overwrites the user's saved address.
func (s *service) Upsert(ctx context.Context, userID uuid.UUID, input Input) (*models.ShippingAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	saved, err := s.repo.Upsert(ctx, &models.ShippingAddress{
		UserID:   userID,
		FullName: input.FullName,
		Email:    input.Email,
		Address1: input.Address1,
		Address2: input.Address2,
		City:     input.City,
		State:    input.State,
		Zipcode:  input.Zipcode,
		Country:  input.Country,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping address")
	}
	return saved, nil
}

// Get returns the user's saved address for checkout prefill.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.ShippingAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addr, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no saved shipping address")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping address")
	}
	return addr, nil
}
