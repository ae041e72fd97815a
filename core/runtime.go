package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runtime is the view of the agent runtime handed to actions, evaluators,
// providers, and services. It exposes identity, configuration, and the
// registered stores, plus the state pipeline entry points handlers commonly
// re-enter (refreshing recent messages after emitting a reply, for
// example).
type Runtime interface {
	AgentID() uuid.UUID
	Character() *Character
	ConversationLength() int
	Logger() zerolog.Logger

	// GetSetting resolves a configuration key with character secrets taking
	// precedence over plain character settings, then process configuration.
	GetSetting(key string) string

	Database() DatabaseAdapter

	MessageManager() MemoryManager
	DescriptionManager() MemoryManager
	LoreManager() MemoryManager
	DocumentsManager() MemoryManager
	FragmentsManager() MemoryManager
	GetMemoryManager(table string) MemoryManager

	GetService(t ServiceType) Service

	EnsureConnection(ctx context.Context, userID, roomID uuid.UUID, userName, userScreenName, source string) error
	ComposeState(ctx context.Context, message Memory, additionalKeys map[string]string) (*State, error)
	UpdateRecentMessageState(ctx context.Context, state *State) (*State, error)
	ProcessActions(ctx context.Context, message Memory, responses []Memory, state *State, callback HandlerCallback) error
	Evaluate(ctx context.Context, message Memory, state *State, didRespond bool, callback HandlerCallback) ([]string, error)
}
