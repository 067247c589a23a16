package syncapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reyes-labs/storefront-backend/internal/cart"
	"github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/enums"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
	"github.com/reyes-labs/storefront-backend/pkg/outbox/payloads"
)

type stubUsers struct {
	byName map[string]*models.User
}

func (s *stubUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.byName[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubProducts struct {
	products []models.Product
}

func (s *stubProducts) List(ctx context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.products, nil
}

type lineKey struct {
	userID    uuid.UUID
	productID uuid.UUID
}

type stubCartRepo struct {
	lines map[lineKey]*models.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{lines: map[lineKey]*models.CartItem{}}
}

func (r *stubCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return r }

func (r *stubCartRepo) FindLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	line, ok := r.lines[lineKey{userID, productID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return line, nil
}

func (r *stubCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for key, line := range r.lines {
		if key.userID == userID {
			out = append(out, *line)
		}
	}
	return out, nil
}

func (r *stubCartRepo) Create(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	line.ID = uuid.New()
	r.lines[lineKey{line.UserID, line.ProductID}] = line
	return line, nil
}

func (r *stubCartRepo) Update(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	r.lines[lineKey{line.UserID, line.ProductID}] = line
	return line, nil
}

func (r *stubCartRepo) DeleteLine(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	key := lineKey{userID, productID}
	if _, ok := r.lines[key]; !ok {
		return 0, nil
	}
	delete(r.lines, key)
	return 1, nil
}

func (r *stubCartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for key := range r.lines {
		if key.userID == userID {
			delete(r.lines, key)
		}
	}
	return nil
}

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID][]models.OrderItem
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}, items: map[uuid.UUID][]models.OrderItem{}}
}

func (r *stubOrderRepo) WithTx(tx *gorm.DB) orders.OrderRepository { return r }

func (r *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *stubOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		r.items[item.OrderID] = append(r.items[item.OrderID], item)
	}
	return nil
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubOrderRepo) ListByShipped(ctx context.Context, shipped bool) ([]models.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range r.orders {
		if order.UserID != nil && *order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.orders[order.ID] = order
	return order, nil
}

type syncFixture struct {
	svc      *Service
	cartRepo *stubCartRepo
	orders   *stubOrderRepo
}

func newSyncFixture(t *testing.T, users map[string]*models.User) *syncFixture {
	t.Helper()
	f := &syncFixture{cartRepo: newStubCartRepo(), orders: newStubOrderRepo()}
	svc, err := NewService(&stubUsers{byName: users}, &stubProducts{}, f.cartRepo, f.orders, nil, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func cartDelivery(t *testing.T, eventType enums.OutboxEventType, payload any) Delivery {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return Delivery{
		EventType: eventType,
		Payload: outbox.PayloadEnvelope{
			Version: 1,
			EventID: uuid.NewString(),
			Data:    raw,
		},
	}
}

func TestCartByUsername(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	f := newSyncFixture(t, map[string]*models.User{"ada": user})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := f.svc.CartByUsername(context.Background(), "nobody")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("returns the user's lines", func(t *testing.T) {
		_, err := f.svc.AddCartItem(context.Background(), "ada", uuid.New(), 2)
		require.NoError(t, err)

		lines, err := f.svc.CartByUsername(context.Background(), "ada")
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}

func TestAddCartItemIncrementsExistingLine(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	f := newSyncFixture(t, map[string]*models.User{"ada": user})
	productID := uuid.New()

	first, err := f.svc.AddCartItem(context.Background(), "ada", productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	second, err := f.svc.AddCartItem(context.Background(), "ada", productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Quantity)
}

func TestRemoveCartItem(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	f := newSyncFixture(t, map[string]*models.User{"ada": user})
	productID := uuid.New()

	t.Run("absent line is not found", func(t *testing.T) {
		err := f.svc.RemoveCartItem(context.Background(), "ada", productID)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("deletes the line", func(t *testing.T) {
		_, err := f.svc.AddCartItem(context.Background(), "ada", productID, 1)
		require.NoError(t, err)

		require.NoError(t, f.svc.RemoveCartItem(context.Background(), "ada", productID))
		assert.Empty(t, f.cartRepo.lines)
	})
}

func TestApplyEventCartLineConverges(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	f := newSyncFixture(t, map[string]*models.User{"ada": user})
	productID := uuid.New()

	payload := payloads.CartItemEvent{UserID: user.ID, ProductID: productID, Quantity: 5}
	delivery := cartDelivery(t, enums.EventCartItemAdded, payload)

	require.NoError(t, f.svc.ApplyEvent(context.Background(), delivery))
	line := f.cartRepo.lines[lineKey{user.ID, productID}]
	require.NotNil(t, line)
	assert.Equal(t, 5, line.Quantity)

	// reapplying the same absolute quantity changes nothing
	require.NoError(t, f.svc.ApplyEvent(context.Background(), delivery))
	assert.Equal(t, 5, f.cartRepo.lines[lineKey{user.ID, productID}].Quantity)
}

func TestApplyEventOrderPlacedIsIdempotent(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	f := newSyncFixture(t, map[string]*models.User{"ada": user})

	orderID := uuid.New()
	payload := payloads.OrderPlacedEvent{
		OrderID:    orderID,
		UserID:     &user.ID,
		FullName:   "Ada Lovelace",
		Email:      "ada@example.com",
		AmountPaid: decimal.RequireFromString("24.00"),
		Items: []payloads.OrderItemEvent{
			{ProductID: uuid.New(), Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
	}
	delivery := cartDelivery(t, enums.EventOrderPlaced, payload)

	require.NoError(t, f.svc.ApplyEvent(context.Background(), delivery))
	require.NoError(t, f.svc.ApplyEvent(context.Background(), delivery))

	assert.Len(t, f.orders.orders, 1)
	assert.Len(t, f.orders.items[orderID], 1)
}

func TestApplyEventRejectsUnknownType(t *testing.T) {
	f := newSyncFixture(t, map[string]*models.User{})

	err := f.svc.ApplyEvent(context.Background(), Delivery{
		EventType: enums.OutboxEventType("bogus"),
		Payload:   outbox.PayloadEnvelope{EventID: uuid.NewString()},
	})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
