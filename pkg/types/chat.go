// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role is the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatTurn is one message in a conversation transcript. Turns are values and
// are never modified after they are appended.
type ChatTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserTurn returns a turn authored by the user.
func UserTurn(content string) ChatTurn { return ChatTurn{Role: RoleUser, Content: content} }

// AssistantTurn returns a turn authored by the assistant.
func AssistantTurn(content string) ChatTurn { return ChatTurn{Role: RoleAssistant, Content: content} }

// SystemTurn returns a system turn.
func SystemTurn(content string) ChatTurn { return ChatTurn{Role: RoleSystem, Content: content} }

// ContextStrategy selects how a transcript is truncated before being sent.
type ContextStrategy string

const (
	StrategyRecent     ContextStrategy = "recent"
	StrategyTokenLimit ContextStrategy = "token_limit"
	StrategySummary    ContextStrategy = "summary"
)

// VideoContext is the video under discussion in a video-analysis conversation.
type VideoContext struct {
	URL     string `json:"url" yaml:"url"`
	VideoID string `json:"video_id" yaml:"video_id"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
}
