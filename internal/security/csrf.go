package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	csrfKeyPrefix = "csrf:"
	csrfTokenLen  = 32
)

// TokenCache issues and validates per-session anti-forgery tokens. The
// token is a session-scoped secret with an expiry, not a one-time nonce;
// a cold cache simply fails validation closed.
type TokenCache interface {
	Issue(ctx context.Context, sessionID string) (string, error)
	Validate(ctx context.Context, sessionID, token string) (bool, error)
}

// RedisTokenCache stores tokens in redis, leaning on its native expiry.
type RedisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenCache(client *redis.Client, ttl time.Duration) *RedisTokenCache {
	return &RedisTokenCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisTokenCache) Issue(ctx context.Context, sessionID string) (string, error) {
	buf := make([]byte, csrfTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := c.client.Set(ctx, csrfKeyPrefix+sessionID, token, c.ttl).Err(); err != nil {
		return "", fmt.Errorf("store csrf token: %w", err)
	}
	return token, nil
}

func (c *RedisTokenCache) Validate(ctx context.Context, sessionID, token string) (bool, error) {
	if sessionID == "" || token == "" {
		return false, nil
	}

	stored, err := c.client.Get(ctx, csrfKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("read csrf token: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}
