package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/internal/address"
	"github.com/reyes-labs/storefront-backend/internal/cart"
	"github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
	"github.com/reyes-labs/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type mirrorClearer interface {
	Clear(ctx context.Context, userID uuid.UUID)
}

// Capture is the result of the billing step: the draft token the shopper
// presents at placement, plus the cart review totals.
type Capture struct {
	Token   string
	Summary *cart.Summary
}

// Service drives the two-step checkout: billing capture, then placement.
type Service interface {
	CaptureBilling(ctx context.Context, userID *uuid.UUID, input address.Input) (*Capture, error)
	Place(ctx context.Context, userID *uuid.UUID, token string) (*models.Order, error)
}

type service struct {
	drafts    DraftStore
	cart      cart.Service
	addresses address.Service
	orders    orders.OrderRepository
	tx        txRunner
	outbox    outboxPublisher
	mirror    mirrorClearer
	validate  *validator.Validate
	now       func() time.Time
}

// NewService wires the checkout flow.
func NewService(
	drafts DraftStore,
	cartSvc cart.Service,
	addresses address.Service,
	orderRepo orders.OrderRepository,
	tx txRunner,
	publisher outboxPublisher,
	mirror mirrorClearer,
) (Service, error) {
	if drafts == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		drafts:    drafts,
		cart:      cartSvc,
		addresses: addresses,
		orders:    orderRepo,
		tx:        tx,
		outbox:    publisher,
		mirror:    mirror,
		validate:  validator.New(),
		now:       time.Now,
	}, nil
}

// CaptureBilling validates the shipping details, stores them as an expiring
// draft and hands back the placement token. Authenticated shoppers also get
// their saved address overwritten for next time.
func (s *service) CaptureBilling(ctx context.Context, userID *uuid.UUID, input address.Input) (*Capture, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing details")
	}

	capture := &Capture{Summary: &cart.Summary{Total: decimal.Zero}}
	if userID != nil {
		if _, err := s.addresses.Upsert(ctx, *userID, input); err != nil {
			return nil, err
		}
		summary, err := s.cart.Summary(ctx, *userID)
		if err != nil {
			return nil, err
		}
		capture.Summary = summary
	}

	token, err := s.drafts.Save(ctx, Draft{
		UserID:          userID,
		FullName:        input.FullName,
		Email:           input.Email,
		ShippingAddress: input.DenormalizedText(),
		CapturedAt:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	capture.Token = token
	return capture, nil
}

// Place turns a captured draft into an order. The order row, its item
// snapshots, the cart clearing and the order.placed outbox event commit in
// one transaction; the draft and cart mirror are discarded after commit.
func (s *service) Place(ctx context.Context, userID *uuid.UUID, token string) (*models.Order, error) {
	draft, err := s.loadDraft(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	if userID == nil {
		return s.placeGuest(ctx, token, draft)
	}
	return s.placeAuthenticated(ctx, *userID, token, draft)
}

func (s *service) loadDraft(ctx context.Context, userID *uuid.UUID, token string) (*Draft, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "billing has not been captured")
	}
	draft, err := s.drafts.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "billing has not been captured")
	}
	if !draftOwnerMatches(draft, userID) {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "billing has not been captured")
	}
	return draft, nil
}

func draftOwnerMatches(draft *Draft, userID *uuid.UUID) bool {
	if draft.UserID == nil || userID == nil {
		return draft.UserID == nil && userID == nil
	}
	return *draft.UserID == *userID
}

// placeGuest records the order with no user reference and no item rows; the
// shopper was never able to build a server-side cart.
func (s *service) placeGuest(ctx context.Context, token string, draft *Draft) (*models.Order, error) {
	order := &models.Order{
		FullName:        draft.FullName,
		Email:           draft.Email,
		ShippingAddress: draft.ShippingAddress,
		AmountPaid:      decimal.Zero,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.emitPlaced(ctx, tx, order, nil)
	})
	if err != nil {
		return nil, err
	}

	s.discardDraft(ctx, token)
	return order, nil
}

func (s *service) placeAuthenticated(ctx context.Context, userID uuid.UUID, token string, draft *Draft) (*models.Order, error) {
	summary, err := s.cart.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := &models.Order{
		UserID:          &userID,
		FullName:        draft.FullName,
		Email:           draft.Email,
		ShippingAddress: draft.ShippingAddress,
		AmountPaid:      summary.Total,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		if _, err := txOrders.Create(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(summary.Lines))
		for _, line := range summary.Lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
				Price:     line.Product.EffectivePrice(),
			})
		}
		if err := txOrders.CreateItems(ctx, items); err != nil {
			return err
		}
		order.Items = items

		if err := s.cart.ClearTx(ctx, tx, userID); err != nil {
			return err
		}

		return s.emitPlaced(ctx, tx, order, &userID)
	})
	if err != nil {
		return nil, err
	}

	s.discardDraft(ctx, token)
	if s.mirror != nil {
		s.mirror.Clear(ctx, userID)
	}
	return order, nil
}

func (s *service) emitPlaced(ctx context.Context, tx *gorm.DB, order *models.Order, userID *uuid.UUID) error {
	items := make([]payloads.OrderItemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	var actor *outbox.ActorRef
	if userID != nil {
		actor = &outbox.ActorRef{UserID: *userID}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderPlacedEvent{
			OrderID:         order.ID,
			UserID:          userID,
			FullName:        order.FullName,
			Email:           order.Email,
			ShippingAddress: order.ShippingAddress,
			AmountPaid:      order.AmountPaid,
			Items:           items,
		},
	})
}

func (s *service) discardDraft(ctx context.Context, token string) {
	// best effort: an undeleted draft simply expires
	_ = s.drafts.Delete(ctx, token)
}
