// ABOUTME: Session history stores keep the most recent turns of each conversation
// ABOUTME: Backends are in-memory, SQLite and Redis; all trim to the same turn limit
package history

import (
	"context"
	"fmt"

	"github.com/harper/coursemate/internal/models"
)

// DefaultMaxTurns is the default number of user/assistant pairs kept per session
const DefaultMaxTurns = 2

// Store keeps per-session history. Appending one turn is atomic per session.
type Store interface {
	// Get returns the kept exchanges of a session, oldest first; unknown sessions are empty
	Get(ctx context.Context, sessionID string) ([]models.Exchange, error)
	// Append records one answered query
	Append(ctx context.Context, sessionID, userMessage, assistantMessage string) error
	Clear(ctx context.Context, sessionID string) error
}

// Backend names a Store implementation
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// ParseBackend validates a backend name; empty selects memory
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case "", BackendMemory:
		return BackendMemory, nil
	case BackendSQLite, BackendRedis:
		return Backend(name), nil
	default:
		return "", fmt.Errorf("%w: unknown history backend %q", models.ErrInvalidConfig, name)
	}
}

func validateMaxTurns(maxTurns int) error {
	if maxTurns < 0 {
		return fmt.Errorf("%w: history turn limit must not be negative, got %d", models.ErrInvalidConfig, maxTurns)
	}
	return nil
}
