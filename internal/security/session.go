package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

var ErrNoSession = errors.New("no valid session")

const sessionKeyPrefix = "session:"

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Sessions issues and resolves owner sessions. The bearer token is a signed
// JWT carrying the session id; the id must also still be present in redis,
// so logout (or a cache flush) invalidates tokens immediately. Losing redis
// only forces a re-login, media data is untouched.
type Sessions struct {
	cache  *redis.Client
	secret string
	ttl    time.Duration
}

func NewSessions(cache *redis.Client, secret string, ttl time.Duration) *Sessions {
	return &Sessions{
		cache:  cache,
		secret: secret,
		ttl:    ttl,
	}
}

// Start creates a session for the owner and returns the bearer token.
func (s *Sessions) Start(ctx context.Context) (string, error) {
	sessionID := ksuid.New().String()

	if err := s.cache.Set(ctx, sessionKeyPrefix+sessionID, "owner", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve maps a bearer token back to its live session id.
func (s *Sessions) Resolve(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", ErrNoSession
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrNoSession
	}

	exists, err := s.cache.Exists(ctx, sessionKeyPrefix+claims.SessionID).Result()
	if err != nil {
		return "", fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return "", ErrNoSession
	}
	return claims.SessionID, nil
}

// End revokes the session behind the token. Unknown tokens are a no-op.
func (s *Sessions) End(ctx context.Context, tokenStr string) error {
	sessionID, err := s.Resolve(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	if err := s.cache.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
