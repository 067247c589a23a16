package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/reyes-labs/storefront-backend/pkg/errors"
	"github.com/reyes-labs/storefront-backend/pkg/redis"
)

// Draft is the billing capture held server-side between the two checkout
// steps. It lives in Redis under an opaque token and expires on its own;
// nothing about checkout progress is kept in cookies or sessions.
type Draft struct {
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	ShippingAddress string     `json:"shipping_address"`
	CapturedAt      time.Time  `json:"captured_at"`
}

// DraftStore persists checkout drafts with a TTL.
type DraftStore interface {
	Save(ctx context.Context, draft Draft) (string, error)
	Load(ctx context.Context, token string) (*Draft, error)
	Delete(ctx context.Context, token string) error
}

type redisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDraftStore builds the Redis-backed draft store.
func NewDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{redis: client, ttl: ttl}
}

// Save stores the draft and returns its opaque token.
func (s *redisDraftStore) Save(ctx context.Context, draft Draft) (string, error) {
	raw, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.redis.Set(ctx, s.redis.DraftKey(token), raw, s.ttl); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout draft")
	}
	return token, nil
}

// Load returns the draft for the token, or nil when it is absent or expired.
func (s *redisDraftStore) Load(ctx context.Context, token string) (*Draft, error) {
	raw, err := s.redis.Get(ctx, s.redis.DraftKey(token))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout draft")
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout draft")
	}
	return &draft, nil
}

// Delete discards the draft once the order is placed.
func (s *redisDraftStore) Delete(ctx context.Context, token string) error {
	return s.redis.Del(ctx, s.redis.DraftKey(token))
}
