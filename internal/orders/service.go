package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
)

// Service backs the admin shipping dashboards and order lookups.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListShipped(ctx context.Context) ([]models.Order, error)
	ListUnshipped(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	SetShipped(ctx context.Context, orderID uuid.UUID, shipped bool) (*models.Order, error)
}

type service struct {
	repo OrderRepository
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(repo OrderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListShipped(ctx context.Context) ([]models.Order, error) {
	out, err := s.repo.ListByShipped(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipped orders")
	}
	return out, nil
}

func (s *service) ListUnshipped(ctx context.Context) ([]models.Order, error) {
	out, err := s.repo.ListByShipped(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unshipped orders")
	}
	return out, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return out, nil
}

// SetShipped flips the fulfilment flag. Marking shipped stamps shipped_at;
// unmarking clears it. Concurrent toggles are last-write-wins.
func (s *service) SetShipped(ctx context.Context, orderID uuid.UUID, shipped bool) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Shipped = shipped
	if shipped {
		now := s.now()
		order.ShippedAt = &now
	} else {
		order.ShippedAt = nil
	}

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return updated, nil
}
