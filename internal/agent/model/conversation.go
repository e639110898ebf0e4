package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the conversation history for the given session
	AddMessage(ctx context.Context, sessionKey string, message *schema.Message) error

	// LoadHistory retrieves the full stored turn sequence for a session
	LoadHistory(ctx context.Context, sessionKey string) (*ConversationHistory, error)

	// ReplaceHistory atomically swaps the stored sequence for the given messages.
	// Used by summarization; the swap either fully applies or leaves the
	// original sequence intact.
	ReplaceHistory(ctx context.Context, sessionKey string, messages []*schema.Message) error

	// ClearHistory removes all conversation history for a session
	ClearHistory(ctx context.Context, sessionKey string) error

	// GetMessageCount returns the number of stored turns for a session
	GetMessageCount(ctx context.Context, sessionKey string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	SessionKey string
	Messages   []*schema.Message
}
