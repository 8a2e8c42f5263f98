// ABOUTME: SQLite history store sharing the index database file
// ABOUTME: History survives restarts of the server
package history

import (
	"context"
	"fmt"

	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage/sqlite"
)

// SQLiteStore persists history in the session_exchanges table
type SQLiteStore struct {
	exchanges *sqlite.ExchangeStore
	maxTurns  int
}

// NewSQLiteStore creates a store over an open database
func NewSQLiteStore(db *sqlite.DB, maxTurns int) (*SQLiteStore, error) {
	if err := validateMaxTurns(maxTurns); err != nil {
		return nil, err
	}
	return &SQLiteStore{exchanges: sqlite.NewExchangeStore(db), maxTurns: maxTurns}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	if s.maxTurns == 0 {
		return nil, nil
	}
	list, err := s.exchanges.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return models.TrimTurns(list, s.maxTurns), nil
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID, userMessage, assistantMessage string) error {
	if s.maxTurns == 0 {
		return nil
	}
	turn, err := models.NewTurn(userMessage, assistantMessage)
	if err != nil {
		return err
	}
	if err := s.exchanges.Append(ctx, sessionID, turn, s.maxTurns*2); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	return s.exchanges.Delete(ctx, sessionID)
}
