// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"context"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Editor is the host's editing surface.
type Editor interface {
	Selection() string
	ReplaceSelection(text string) error
	InsertAtCursor(text string) error
}

// SettingsStore persists the settings blob.
type SettingsStore interface {
	Load() (types.Settings, error)
	Save(s types.Settings) error
}

// Vault is the host's note storage, used to save conversations.
type Vault interface {
	CreateFile(path, content string) error
	ListFiles(folder string) ([]string, error)
}

// ConversationStore keeps chat sessions between runs. *store.Store
// implements it.
type ConversationStore interface {
	SaveConversation(ctx context.Context, c types.Conversation) error
}
