package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers refresh token ids that were already exchanged.
// Key format: revoked:refresh:<jti>
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Consume claims the token id with SET NX so only one refresh can win it.
// The key lives for ttl, which should match the remaining token lifetime.
func (s *RevocationStore) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, revocationKey(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	return ok, nil
}

func revocationKey(tokenID string) string {
	return "revoked:refresh:" + tokenID
}
