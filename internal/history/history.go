// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history selects the slice of a conversation transcript that is
// sent to a provider with the next request.
package history

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	// charsPerToken is the coarse token estimate used by the token_limit strategy.
	charsPerToken = 4

	// tokensPerLimitUnit scales the limit into a token budget.
	tokensPerLimitUnit = 100

	// digestChars is how much of each message the summary digest keeps.
	digestChars = 100
)

// Placeholder is the text a host shows in a chat turn while the request for
// it is outstanding.
const Placeholder = "Searching..."

var (
	// barePlaceholder matches a lone status word such as "Searching..." or
	// "Thinking…" with nothing else in the turn.
	barePlaceholder = regexp.MustCompile(`(?i)^\s*(?:searching|thinking|loading|analyzing|analysing|researching|generating)\s*(?:\.\.\.|…)\s*$`)

	// iconPlaceholder matches status lines a host prefixes with an icon, such
	// as "🔍 Searching with Perplexity...". The icon is required.
	iconPlaceholder = regexp.MustCompile(`(?i)^\s*[\p{So}\p{Sk}\x{FE0F}]+\s*(?:searching|thinking|loading|analyzing|analysing|researching|generating)\b[^\n]{0,60}?(?:\.\.\.|…)\s*$`)

	// spinnerPattern matches turns made only of spinner glyphs or dots.
	spinnerPattern = regexp.MustCompile(`^\s*[.…⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏⏳⌛◐◓◑◒|/\\-]+\s*$`)
)

// IsPlaceholder reports whether content is an in-progress placeholder: the
// Placeholder constant, a bare status word, an icon-prefixed status line or
// spinner glyphs. Ordinary text that happens to start with "Researching" or
// end in "..." is not a placeholder.
func IsPlaceholder(content string) bool {
	if strings.TrimSpace(content) == Placeholder {
		return true
	}
	return barePlaceholder.MatchString(content) ||
		iconPlaceholder.MatchString(content) ||
		spinnerPattern.MatchString(content)
}

// Build returns the turns to include in the next request. System turns and
// placeholders are always dropped first. A limit of zero or less yields no
// turns. Unknown strategies behave like StrategyRecent.
func Build(transcript []types.ChatTurn, strategy types.ContextStrategy, limit int) []types.ChatTurn {
	if limit <= 0 {
		return nil
	}
	turns := filter(transcript)

	switch strategy {
	case types.StrategyTokenLimit:
		return byTokens(turns, limit*tokensPerLimitUnit)
	case types.StrategySummary:
		return summarize(turns, limit)
	default:
		return recent(turns, limit)
	}
}

// EstimateTokens returns ceil(len(content)/4).
func EstimateTokens(content string) int {
	return (len(content) + charsPerToken - 1) / charsPerToken
}

func filter(transcript []types.ChatTurn) []types.ChatTurn {
	out := make([]types.ChatTurn, 0, len(transcript))
	for _, t := range transcript {
		if t.Role == types.RoleSystem || IsPlaceholder(t.Content) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func recent(turns []types.ChatTurn, limit int) []types.ChatTurn {
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]types.ChatTurn(nil), turns...)
}

// byTokens walks backward from the newest turn while the running total stays
// within budget.
func byTokens(turns []types.ChatTurn, budget int) []types.ChatTurn {
	total := 0
	start := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		n := EstimateTokens(turns[i].Content)
		if total+n > budget {
			break
		}
		total += n
		start = i
	}
	return append([]types.ChatTurn(nil), turns[start:]...)
}

// summarize keeps the first turn and the newest limit/2 turns, and replaces
// everything between them with one system digest turn.
func summarize(turns []types.ChatTurn, limit int) []types.ChatTurn {
	if len(turns) <= limit {
		return append([]types.ChatTurn(nil), turns...)
	}
	tail := limit / 2
	middle := turns[1 : len(turns)-tail]

	out := make([]types.ChatTurn, 0, tail+2)
	out = append(out, turns[0])
	out = append(out, types.SystemTurn(digest(middle)))
	out = append(out, turns[len(turns)-tail:]...)
	return out
}

func digest(turns []types.ChatTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %d earlier messages:", len(turns))
	for _, t := range turns {
		fmt.Fprintf(&b, "\n- %s: %s", t.Role, clip(t.Content, digestChars))
	}
	return b.String()
}

// clip returns the first n characters of s, marking the cut with "...".
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
