// ABOUTME: Session exchange storage for SQLite-backed conversation history
// ABOUTME: Appends and trims in one transaction so concurrent appends cannot lose entries
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/harper/coursemate/internal/models"
)

// ExchangeStore handles session history persistence
type ExchangeStore struct {
	db *DB
}

// NewExchangeStore creates a new ExchangeStore
func NewExchangeStore(db *DB) *ExchangeStore {
	return &ExchangeStore{db: db}
}

// Append adds exchanges to a session and keeps only the newest keep entries.
// keep <= 0 keeps everything.
func (s *ExchangeStore) Append(ctx context.Context, sessionID string, exchanges []models.Exchange, keep int) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, ex := range exchanges {
			ts := ex.Timestamp
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_exchanges (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
				sessionID, string(ex.Role), ex.Content, ts,
			); err != nil {
				return err
			}
		}
		if keep <= 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			DELETE FROM session_exchanges
			WHERE session_id = ? AND id NOT IN (
				SELECT id FROM session_exchanges WHERE session_id = ? ORDER BY id DESC LIMIT ?
			)
		`, sessionID, sessionID, keep)
		return err
	})
}

// List returns a session's exchanges, oldest first
func (s *ExchangeStore) List(ctx context.Context, sessionID string) ([]models.Exchange, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT role, content, created_at FROM session_exchanges
		WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Exchange
	for rows.Next() {
		var (
			ex   models.Exchange
			role string
		)
		if err := rows.Scan(&role, &ex.Content, &ex.Timestamp); err != nil {
			return nil, err
		}
		ex.Role = models.Role(role)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Delete removes a session's history
func (s *ExchangeStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.conn.ExecContext(ctx, `DELETE FROM session_exchanges WHERE session_id = ?`, sessionID)
	return err
}
