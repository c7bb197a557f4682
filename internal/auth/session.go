package auth

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type sessionData struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Sessions stores refresh tokens in Redis, keyed by the token's sha256.
type Sessions struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSessions(client *redis.Client, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Sessions{client: client, prefix: "refresh:", ttl: ttl}
}

// Dial connects to redisURL and checks the connection.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}

func newRefreshToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (s *Sessions) key(token string) string {
	return s.prefix + HashToken(token)
}

// Issue creates a refresh token for userID.
func (s *Sessions) Issue(ctx context.Context, userID string) (string, error) {
	token := newRefreshToken()
	b, err := json.Marshal(sessionData{UserID: userID, CreatedAt: time.Now()})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save refresh token: %w", err)
	}
	return token, nil
}

// Lookup returns the user id behind a refresh token.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("unmarshal session: %w", err)
	}
	return data.UserID, nil
}

// Rotate revokes token and issues a replacement for the same user. GETDEL
// makes a token usable for exactly one rotation.
func (s *Sessions) Rotate(ctx context.Context, token string) (userID, next string, err error) {
	raw, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", "", ErrSessionNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", "", fmt.Errorf("unmarshal session: %w", err)
	}
	next, err = s.Issue(ctx, data.UserID)
	if err != nil {
		return "", "", err
	}
	return data.UserID, next, nil
}

// Revoke deletes a refresh token. Unknown tokens are not an error.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
