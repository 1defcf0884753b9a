// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research assistant:
// provider and mode identifiers, provider profiles, chat turns, normalized
// results, and the persisted settings blob.
package types

import (
	"fmt"
	"strings"
)

// ProviderID identifies one of the supported research providers. Each
// provider has a fixed request schema.
type ProviderID string

const (
	// ProviderGemini is the generative AI provider with web grounding.
	ProviderGemini ProviderID = "gemini"

	// ProviderPerplexity is the chat-completion style search provider.
	ProviderPerplexity ProviderID = "perplexity"

	// ProviderTavily is a single-shot search provider with the key in the body.
	ProviderTavily ProviderID = "tavily"

	// ProviderExa is a single-shot search provider with the key in a header.
	ProviderExa ProviderID = "exa"
)

// AllProviders returns every supported provider in display order.
func AllProviders() []ProviderID {
	return []ProviderID{ProviderGemini, ProviderPerplexity, ProviderTavily, ProviderExa}
}

// ParseProviderID converts a user-supplied name into a ProviderID.
func ParseProviderID(s string) (ProviderID, error) {
	p := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
	return p, nil
}

// Valid reports whether p is in the provider allow-list.
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderGemini, ProviderPerplexity, ProviderTavily, ProviderExa:
		return true
	}
	return false
}

// IsGeneration reports whether p belongs to the generation family.
func (p ProviderID) IsGeneration() bool { return p == ProviderGemini }

// SupportsChat reports whether the provider accepts multi-turn context.
// Tavily and Exa are single-shot search APIs.
func (p ProviderID) SupportsChat() bool {
	return p == ProviderGemini || p == ProviderPerplexity
}

// DisplayName returns the human-readable provider name.
func (p ProviderID) DisplayName() string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderPerplexity:
		return "Perplexity"
	case ProviderTavily:
		return "Tavily"
	case ProviderExa:
		return "Exa"
	}
	return string(p)
}

// ResearchMode selects how thorough a query should be. It is a closed set:
// every table keyed by mode must handle all values.
type ResearchMode string

const (
	ModeQuick         ResearchMode = "quick"
	ModeComprehensive ResearchMode = "comprehensive"
	ModeDeep          ResearchMode = "deep"
	ModeReasoning     ResearchMode = "reasoning"
	ModeVideo         ResearchMode = "video"
)

// AllModes returns every research mode in display order.
func AllModes() []ResearchMode {
	return []ResearchMode{ModeQuick, ModeComprehensive, ModeDeep, ModeReasoning, ModeVideo}
}

// ParseResearchMode converts a user-supplied name into a ResearchMode.
func ParseResearchMode(s string) (ResearchMode, error) {
	m := ResearchMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown research mode %q", s)
	}
	return m, nil
}

// Valid reports whether m is a known research mode.
func (m ResearchMode) Valid() bool {
	switch m {
	case ModeQuick, ModeComprehensive, ModeDeep, ModeReasoning, ModeVideo:
		return true
	}
	return false
}

// CompatibleWith reports whether the mode can be used with provider p.
// Video analysis is only available on the generation provider.
func (m ResearchMode) CompatibleWith(p ProviderID) bool {
	if m == ModeVideo {
		return p == ProviderGemini
	}
	return true
}

// DisplayName returns the human-readable mode name.
func (m ResearchMode) DisplayName() string {
	switch m {
	case ModeQuick:
		return "Quick"
	case ModeComprehensive:
		return "Comprehensive"
	case ModeDeep:
		return "Deep"
	case ModeReasoning:
		return "Reasoning"
	case ModeVideo:
		return "Video analysis"
	}
	return string(m)
}
