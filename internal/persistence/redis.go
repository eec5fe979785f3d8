package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/cart-engine/internal/domain"
)

// NewRedisStore creates a store scoped to one session key.
func NewRedisStore(client *redis.Client, sessionID string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     cartKey(sessionID),
		baseTTL: 24 * time.Hour,
	}
}

// RedisStore keeps the serialized cart in Redis under a per-session key.
// TTL gets a random jitter so a fleet of sessions does not expire at once.
type RedisStore struct {
	client  *redis.Client
	key     string
	baseTTL time.Duration
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Minute
	if err := r.client.Set(ctx, r.key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
