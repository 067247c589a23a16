package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/redis"
)

const mirrorTTL = 24 * time.Hour

// mirrorLine is the compact cart representation cached per user.
type mirrorLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Mirror keeps a per-user cart snapshot in Redis. Postgres stays
// authoritative; the mirror is refreshed after every mutation and a stale
// or missing mirror is repopulated from the database on read.
type Mirror struct {
	redis *redis.Client
	logg  *logger.Logger
}

// NewMirror builds the session-cache layer for carts.
func NewMirror(client *redis.Client, logg *logger.Logger) *Mirror {
	return &Mirror{redis: client, logg: logg}
}

// Refresh overwrites the cached cart with the given lines. Failures are
// logged, never propagated. A snapshot that cannot be written must not leave
// the previous one behind: reads would keep serving pre-mutation quantities
// until the TTL, so the key is dropped and the next read repopulates it from
// the database.
func (m *Mirror) Refresh(ctx context.Context, userID uuid.UUID, lines []models.CartItem) {
	if m == nil || m.redis == nil {
		return
	}
	key := m.redis.CartKey(userID.String())
	snapshot := make([]mirrorLine, 0, len(lines))
	for _, line := range lines {
		snapshot = append(snapshot, mirrorLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		m.warn(ctx, "cart mirror marshal failed", err)
		m.Clear(ctx, userID)
		return
	}
	if err := m.redis.Set(ctx, key, payload, mirrorTTL); err != nil {
		m.warn(ctx, "cart mirror refresh failed", err)
		m.Clear(ctx, userID)
	}
}

// Load returns the cached (product, quantity) pairs, or ok=false on a miss.
func (m *Mirror) Load(ctx context.Context, userID uuid.UUID) ([]mirrorLine, bool) {
	if m == nil || m.redis == nil {
		return nil, false
	}
	raw, err := m.redis.Get(ctx, m.redis.CartKey(userID.String()))
	if err != nil {
		if !redis.IsNil(err) {
			m.warn(ctx, "cart mirror read failed", err)
		}
		return nil, false
	}
	var snapshot []mirrorLine
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		m.warn(ctx, "cart mirror decode failed", err)
		return nil, false
	}
	return snapshot, true
}

// Clear drops the cached cart.
func (m *Mirror) Clear(ctx context.Context, userID uuid.UUID) {
	if m == nil || m.redis == nil {
		return
	}
	if err := m.redis.Del(ctx, m.redis.CartKey(userID.String())); err != nil {
		m.warn(ctx, "cart mirror clear failed", err)
	}
}

func (m *Mirror) warn(ctx context.Context, msg string, err error) {
	if m.logg == nil {
		return
	}
	m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), msg)
}
