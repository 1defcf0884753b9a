// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Conversation is a saved chat session.
type Conversation struct {
	ID       string        `json:"id" yaml:"id"`
	Title    string        `json:"title" yaml:"title"`
	Provider ProviderID    `json:"provider" yaml:"provider"`
	Mode     ResearchMode  `json:"mode" yaml:"mode"`
	Turns    []ChatTurn    `json:"turns" yaml:"turns"`
	Video    *VideoContext `json:"video,omitempty" yaml:"video,omitempty"`
	Created  time.Time     `json:"created" yaml:"created"`
	Updated  time.Time     `json:"updated" yaml:"updated"`
}

// FirstQuery returns the content of the first user turn, or "".
func (c Conversation) FirstQuery() string {
	for _, t := range c.Turns {
		if t.Role == RoleUser {
			return t.Content
		}
	}
	return ""
}
