package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/pkg/checkout"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
	"github.com/reyes-labs/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Line is one cart entry joined with its product and extended price.
type Line struct {
	Product   models.Product
	Quantity  int
	LineTotal decimal.Decimal
}

// Summary is the user's cart with its live total. Totals are recomputed from
// current effective prices on every read, never snapshotted.
type Summary struct {
	Lines []Line
	Total decimal.Decimal
}

// Service exposes cart operations for the current user.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Items(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	outbox   outboxPublisher
	mirror   *Mirror
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, publisher outboxPublisher, mirror *Mirror) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		outbox:   publisher,
		mirror:   mirror,
	}, nil
}

// Add increments the (user, product) line by quantity, creating it on first
// add. The line mutation and its outbox event commit together.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := validateIDs(userID, productID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var saved *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLine(ctx, userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		newQty := quantity
		if line != nil {
			newQty = line.Quantity + quantity
		}
		if err := checkout.ValidateStock([]checkout.StockValidationInput{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Stock:       product.Stock,
			Requested:   newQty,
		}}); err != nil {
			return err
		}

		if line != nil {
			line.Quantity = newQty
			saved, err = txRepo.Update(ctx, line)
		} else {
			saved, err = txRepo.Create(ctx, &models.CartItem{
				UserID:    userID,
				ProductID: productID,
				Quantity:  newQty,
			})
		}
		if err != nil {
			return err
		}

		return s.emitLineEvent(ctx, tx, enums.EventCartItemAdded, userID, productID, newQty)
	})
	if err != nil {
		return nil, err
	}

	s.refreshMirror(ctx, userID)
	return saved, nil
}

// Update sets the line's quantity exactly. A missing line is NotFound.
func (s *service) Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := validateIDs(userID, productID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkout.ValidateStock([]checkout.StockValidationInput{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Stock:       product.Stock,
		Requested:   quantity,
	}}); err != nil {
		return nil, err
	}

	var saved *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		line, err := txRepo.FindLine(ctx, userID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}

		line.Quantity = quantity
		if saved, err = txRepo.Update(ctx, line); err != nil {
			return err
		}

		return s.emitLineEvent(ctx, tx, enums.EventCartItemUpdated, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.refreshMirror(ctx, userID)
	return saved, nil
}

// Remove deletes the line. Removing an absent line is a no-op, not an error.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := validateIDs(userID, productID); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		rows, err := txRepo.DeleteLine(ctx, userID, productID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartItemRemoved,
			AggregateType: enums.AggregateCart,
			AggregateID:   userID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          payloads.CartItemRemovedEvent{UserID: userID, ProductID: productID},
		})
	})
	if err != nil {
		return err
	}

	s.refreshMirror(ctx, userID)
	return nil
}

// Items returns the cart lines joined with their products.
func (s *service) Items(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summary.Lines, nil
}

// ClearTx deletes every line for the user inside the caller's transaction.
// Checkout uses it so the cart empties atomically with order creation; the
// caller clears the mirror after commit.
func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return s.repo.WithTx(tx).DeleteByUser(ctx, userID)
}

// Summary returns the cart lines and their live total. The mirror serves
// (product, quantity) pairs when warm; prices always come from the catalog.
func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if cached, ok := s.mirror.Load(ctx, userID); ok {
		if summary, ok := s.summaryFromMirror(ctx, cached); ok {
			return summary, nil
		}
	}

	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	s.mirror.Refresh(ctx, userID, lines)

	summary := &Summary{Total: decimal.Zero}
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		summary.Lines = append(summary.Lines, newLine(*line.Product, line.Quantity))
	}
	summary.Total = sumLines(summary.Lines)
	return summary, nil
}

func (s *service) summaryFromMirror(ctx context.Context, cached []mirrorLine) (*Summary, bool) {
	if len(cached) == 0 {
		return &Summary{Total: decimal.Zero}, true
	}
	ids := make([]uuid.UUID, 0, len(cached))
	for _, line := range cached {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil || len(products) != len(cached) {
		// stale mirror, rebuild from the database
		return nil, false
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	summary := &Summary{}
	for _, line := range cached {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, false
		}
		summary.Lines = append(summary.Lines, newLine(product, line.Quantity))
	}
	summary.Total = sumLines(summary.Lines)
	return summary, true
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) emitLineEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, userID, productID uuid.UUID, quantity int) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateCart,
		AggregateID:   userID,
		Actor:         &outbox.ActorRef{UserID: userID},
		Data: payloads.CartItemEvent{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		},
	})
}

func (s *service) refreshMirror(ctx context.Context, userID uuid.UUID) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.mirror.Clear(ctx, userID)
		return
	}
	s.mirror.Refresh(ctx, userID, lines)
}

func validateIDs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}

func newLine(product models.Product, quantity int) Line {
	return Line{
		Product:   product,
		Quantity:  quantity,
		LineTotal: product.EffectivePrice().Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total
}
