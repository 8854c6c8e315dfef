package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "coop-loans:idempotency:"
	inFlightMarker    = "processing"
)

// ErrRequestInFlight is returned when another request holding the same
// idempotency key has not finished yet.
var ErrRequestInFlight = errors.New("request with this idempotency key is still in progress")

// IdempotencyStore remembers the outcome of mutating requests keyed by the
// client-supplied Idempotency-Key header.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for the caller. When the key was already used it
// returns the stored response, or ErrRequestInFlight while the first
// request is still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (reserved bool, stored []byte, err error) {
	fullKey := idempotencyPrefix + key

	ok, err := s.client.SetNX(ctx, fullKey, inFlightMarker, s.ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("idempotency reserve failed: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return false, nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}
	if string(existing) == inFlightMarker {
		return false, nil, ErrRequestInFlight
	}
	return false, existing, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte) error {
	return s.client.Set(ctx, idempotencyPrefix+key, response, s.ttl).Err()
}

// Release forgets key so the client may retry, used when the request failed
// without a durable effect.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}
