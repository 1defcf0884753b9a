// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// perplexitySystemPrompt opens every chat-completion conversation.
const perplexitySystemPrompt = "You are a research assistant. Be precise, cite your sources, and format answers in Markdown."

type perplexityBackend struct {
	base string
}

func (b *perplexityBackend) build(in buildInput) (string, map[string]string, any, error) {
	s := in.profile.Search
	if s == nil {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no search parameters", in.profile.Mode, in.profile.Provider)
	}
	if in.profile.Model == "" {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no model", in.profile.Mode, in.profile.Provider)
	}

	req := perplexityRequest{
		Model:                  in.profile.Model,
		Messages:               perplexityMessages(in.context, in.prompt),
		Temperature:            s.Temperature,
		MaxTokens:              s.MaxTokens,
		TopP:                   s.TopP,
		TopK:                   s.TopK,
		FrequencyPenalty:       s.FrequencyPenalty,
		PresencePenalty:        s.PresencePenalty,
		SearchDomainFilter:     domainFilter(s.IncludeDomains, s.ExcludeDomains),
		ReturnImages:           s.IncludeImages,
		ReturnRelatedQuestions: s.IncludeRelatedQuestions,
	}
	if s.Recency.IsSet() {
		req.SearchRecencyFilter = string(s.Recency)
	}

	url := strings.TrimRight(b.base, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + in.apiKey}
	return url, headers, req, nil
}

// perplexityMessages builds a system message followed by strictly
// alternating user and assistant messages ending with the prompt. Adjacent
// turns with the same role are merged and a leading assistant turn is
// dropped.
func perplexityMessages(prior []types.ChatTurn, prompt string) []openai.ChatCompletionMessage {
	system := []string{perplexitySystemPrompt}
	var turns []openai.ChatCompletionMessage
	push := func(role, content string) {
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + content
			return
		}
		if len(turns) == 0 && role == openai.ChatMessageRoleAssistant {
			return
		}
		turns = append(turns, openai.ChatCompletionMessage{Role: role, Content: content})
	}

	for _, t := range prior {
		switch t.Role {
		case types.RoleSystem:
			system = append(system, t.Content)
		case types.RoleAssistant:
			push(openai.ChatMessageRoleAssistant, t.Content)
		default:
			push(openai.ChatMessageRoleUser, t.Content)
		}
	}
	push(openai.ChatMessageRoleUser, prompt)

	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: strings.Join(system, "\n\n")})
	return append(msgs, turns...)
}

// domainFilter lists included domains as is and excluded domains with a
// leading "-".
func domainFilter(include, exclude []string) []string {
	var out []string
	out = append(out, include...)
	for _, d := range exclude {
		out = append(out, "-"+d)
	}
	return out
}

// perplexityRequest is the chat completions body. Zero penalties and limits
// are left out so the API defaults apply.
type perplexityRequest struct {
	Model                  string                         `json:"model"`
	Messages               []openai.ChatCompletionMessage `json:"messages"`
	Temperature            float64                        `json:"temperature"`
	MaxTokens              int                            `json:"max_tokens,omitempty"`
	TopP                   float64                        `json:"top_p,omitempty"`
	TopK                   int                            `json:"top_k,omitempty"`
	FrequencyPenalty       float64                        `json:"frequency_penalty,omitempty"`
	PresencePenalty        float64                        `json:"presence_penalty,omitempty"`
	SearchRecencyFilter    string                         `json:"search_recency_filter,omitempty"`
	SearchDomainFilter     []string                       `json:"search_domain_filter,omitempty"`
	ReturnImages           bool                           `json:"return_images"`
	ReturnRelatedQuestions bool                           `json:"return_related_questions"`
}
