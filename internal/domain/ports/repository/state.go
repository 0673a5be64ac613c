package repository

import (
	"context"
)

// ConversationState holds a user's progress in any multi-step conversation:
// the purchase flow, registration, asking a question, or a broadcast draft.
type ConversationState struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data"`
}

// StateRepository is the port for managing per-user conversational state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
