// ABOUTME: Exchange is one message of a session's conversation history
// ABOUTME: A query appends one user exchange followed by one assistant exchange
package models

import (
	"errors"
	"strings"
	"time"
)

// Role identifies who authored an exchange
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is user or assistant
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Exchange is a single (role, content) history entry
type Exchange struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn builds the user and assistant exchanges for one answered query
func NewTurn(userMessage, assistantMessage string) ([]Exchange, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	now := time.Now().UTC()
	return []Exchange{
		{Role: RoleUser, Content: userMessage, Timestamp: now},
		{Role: RoleAssistant, Content: assistantMessage, Timestamp: now},
	}, nil
}

// TrimTurns keeps the most recent maxTurns user/assistant pairs
func TrimTurns(exchanges []Exchange, maxTurns int) []Exchange {
	if maxTurns <= 0 {
		return nil
	}
	limit := maxTurns * 2
	if len(exchanges) <= limit {
		return exchanges
	}
	return exchanges[len(exchanges)-limit:]
}
