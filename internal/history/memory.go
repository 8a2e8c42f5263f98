// ABOUTME: In-memory history store, the default backend
// ABOUTME: History is lost on restart
package history

import (
	"context"
	"sync"

	"github.com/harper/coursemate/internal/models"
)

// MemoryStore keeps history in a map guarded by one mutex
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Exchange
	maxTurns int
}

// NewMemoryStore creates an empty store. maxTurns 0 disables history.
func NewMemoryStore(maxTurns int) (*MemoryStore, error) {
	if err := validateMaxTurns(maxTurns); err != nil {
		return nil, err
	}
	return &MemoryStore{sessions: make(map[string][]models.Exchange), maxTurns: maxTurns}, nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kept := s.sessions[sessionID]
	out := make([]models.Exchange, len(kept))
	copy(out, kept)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID, userMessage, assistantMessage string) error {
	if s.maxTurns == 0 {
		return nil
	}
	turn, err := models.NewTurn(userMessage, assistantMessage)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	combined := append(append([]models.Exchange{}, s.sessions[sessionID]...), turn...)
	s.sessions[sessionID] = models.TrimTurns(combined, s.maxTurns)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
