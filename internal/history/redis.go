// ABOUTME: Redis history store for servers running more than one replica
// ABOUTME: Each session is a JSON list trimmed and expired in one MULTI block
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harper/coursemate/internal/models"
)

// DefaultSessionTTL is how long an idle session's history is kept in Redis
const DefaultSessionTTL = 24 * time.Hour

// RedisStore keeps each session under coursemate:session:<id>:history
type RedisStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisStore connects to addr. ttl <= 0 selects DefaultSessionTTL.
func NewRedisStore(addr, password string, db, maxTurns int, ttl time.Duration) (*RedisStore, error) {
	if err := validateMaxTurns(maxTurns); err != nil {
		return nil, err
	}
	if addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", models.ErrInvalidConfig)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, maxTurns: maxTurns, ttl: ttl}, nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("coursemate:session:%s:history", sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	if s.maxTurns == 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	out := make([]models.Exchange, 0, len(raw))
	for _, item := range raw {
		var ex models.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		out = append(out, ex)
	}
	return models.TrimTurns(out, s.maxTurns), nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID, userMessage, assistantMessage string) error {
	if s.maxTurns == 0 {
		return nil
	}
	turn, err := models.NewTurn(userMessage, assistantMessage)
	if err != nil {
		return err
	}

	values := make([]any, 0, len(turn))
	for _, ex := range turn {
		data, err := json.Marshal(ex)
		if err != nil {
			return fmt.Errorf("failed to encode history entry: %w", err)
		}
		values = append(values, string(data))
	}

	key := historyKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-s.maxTurns*2), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, historyKey(sessionID)).Err()
}
