package syncapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/internal/cart"
	"github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
	"github.com/reyes-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/reyes-labs/storefront-backend/pkg/redis"
)

// processed event ids are remembered long enough to outlive dispatcher retries
const dedupeTTL = 7 * 24 * time.Hour

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type productLister interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Delivery is one outbox event as posted by the dispatcher.
type Delivery struct {
	EventType enums.OutboxEventType  `json:"event_type"`
	Payload   outbox.PayloadEnvelope `json:"payload"`
}

// Service serves the secondary read/write surface and consumes dispatcher
// deliveries idempotently.
type Service struct {
	users    userFinder
	products productLister
	cartRepo cart.CartRepository
	orders   orders.OrderRepository
	redis    *redis.Client
	logg     *logger.Logger
}

// NewService wires the sync API service.
func NewService(
	users userFinder,
	products productLister,
	cartRepo cart.CartRepository,
	orderRepo orders.OrderRepository,
	redisClient *redis.Client,
	logg *logger.Logger,
) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &Service{
		users:    users,
		products: products,
		cartRepo: cartRepo,
		orders:   orderRepo,
		redis:    redisClient,
		logg:     logg,
	}, nil
}

// Products lists the catalog.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	out, err := s.products.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

// CartByUsername returns the named user's cart lines.
func (s *Service) CartByUsername(ctx context.Context, username string) ([]models.CartItem, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	lines, err := s.cartRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return lines, nil
}

// AddCartItem increments the (user, product) line by the given quantity,
// creating it when absent. Only dispatcher deliveries converge on absolute
// quantities; this surface behaves like a client add.
func (s *Service) AddCartItem(ctx context.Context, username string, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	line, err := s.cartRepo.FindLine(ctx, user.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line == nil {
		return s.upsertLine(ctx, user.ID, productID, quantity)
	}
	return s.upsertLine(ctx, user.ID, productID, line.Quantity+quantity)
}

// RemoveCartItem deletes the line; removing an absent line is not found.
func (s *Service) RemoveCartItem(ctx context.Context, username string, productID uuid.UUID) error {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	deleted, err := s.cartRepo.DeleteLine(ctx, user.ID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// OrdersByUsername returns the named user's orders with items.
func (s *Service) OrdersByUsername(ctx context.Context, username string) ([]models.Order, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	out, err := s.orders.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

// ApplyEvent consumes one dispatcher delivery. Event ids are recorded in
// Redis with SetNX so a replayed delivery is acknowledged without touching
// the database again.
func (s *Service) ApplyEvent(ctx context.Context, delivery Delivery) error {
	eventID := delivery.Payload.EventID
	if eventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if !delivery.EventType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown event type")
	}

	fresh, err := s.markProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if !fresh {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_id", eventID), "duplicate delivery skipped")
		}
		return nil
	}

	if err := s.apply(ctx, delivery); err != nil {
		s.unmarkProcessed(ctx, eventID)
		return err
	}
	return nil
}

func (s *Service) apply(ctx context.Context, delivery Delivery) error {
	switch delivery.EventType {
	case enums.EventCartItemAdded, enums.EventCartItemUpdated:
		var payload payloads.CartItemEvent
		if err := json.Unmarshal(delivery.Payload.Data, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart event")
		}
		_, err := s.upsertLine(ctx, payload.UserID, payload.ProductID, payload.Quantity)
		return err

	case enums.EventCartItemRemoved:
		var payload payloads.CartItemRemovedEvent
		if err := json.Unmarshal(delivery.Payload.Data, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart event")
		}
		_, err := s.cartRepo.DeleteLine(ctx, payload.UserID, payload.ProductID)
		return err

	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(delivery.Payload.Data, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order event")
		}
		return s.ensureOrder(ctx, payload)

	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown event type")
	}
}

// upsertLine converges the line on an absolute quantity.
func (s *Service) upsertLine(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	line, err := s.cartRepo.FindLine(ctx, userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line == nil {
		line, err = s.cartRepo.Create(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		})
	} else {
		line.Quantity = quantity
		line, err = s.cartRepo.Update(ctx, line)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
	}
	return line, nil
}

// ensureOrder inserts the order snapshot unless it is already present.
func (s *Service) ensureOrder(ctx context.Context, payload payloads.OrderPlacedEvent) error {
	if _, err := s.orders.FindByID(ctx, payload.OrderID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	order := &models.Order{
		ID:              payload.OrderID,
		UserID:          payload.UserID,
		FullName:        payload.FullName,
		Email:           payload.Email,
		ShippingAddress: payload.ShippingAddress,
		AmountPaid:      payload.AmountPaid,
	}
	if _, err := s.orders.Create(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	items := make([]models.OrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, models.OrderItem{
			OrderID:   payload.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	if err := s.orders.CreateItems(ctx, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *Service) markProcessed(ctx context.Context, eventID string) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	fresh, err := s.redis.SetNX(ctx, s.redis.SyncEventKey(eventID), "1", dedupeTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record event id")
	}
	return fresh, nil
}

func (s *Service) unmarkProcessed(ctx context.Context, eventID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.redis.SyncEventKey(eventID)); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "event_id", eventID), "failed to release event id")
	}
}
