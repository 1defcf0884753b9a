// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Template tokens replaced in prompt templates.
const (
	QueryToken = "{query}"
	URLToken   = "{url}"
)

// DefaultTemplate returns the built-in prompt template for mode.
func DefaultTemplate(mode types.ResearchMode) string {
	switch mode {
	case types.ModeQuick:
		return "Answer the following question concisely and factually in a few sentences.\n\nQuestion: {query}"
	case types.ModeComprehensive:
		return "Research the following topic and write a well-structured answer with headings where useful. " +
			"Cover the key facts, relevant background, and differing viewpoints, and cite sources.\n\nTopic: {query}"
	case types.ModeDeep:
		return "Conduct an in-depth investigation of the following topic. Examine primary sources, recent developments, " +
			"open questions, and evidence quality. Organize the findings into sections and end with a short summary.\n\nTopic: {query}"
	case types.ModeReasoning:
		return "Work through the following problem step by step. State your assumptions, reason carefully, " +
			"and give a clearly marked final answer.\n\nProblem: {query}"
	case types.ModeVideo:
		return "Analyze the video at {url}. Summarize its content, list the key points with timestamps where possible, " +
			"and then respond to this request: {query}"
	}
	return QueryToken
}

// ApplyTemplate replaces every {query} in tpl with query and, when url is
// set, every {url} with url. Without a url, {url} is left as written.
// Substituted text is not scanned again.
func ApplyTemplate(tpl, query, url string) string {
	if url == "" {
		return strings.NewReplacer(QueryToken, query).Replace(tpl)
	}
	return strings.NewReplacer(QueryToken, query, URLToken, url).Replace(tpl)
}

// Prompt returns the text sent to a generation or chat-completion provider:
// the user's custom template for mode when templates are enabled and one is
// set, the built-in template otherwise. A custom template without {query}
// gets the query appended. In video mode without an active
// video, the query is sent as is.
func Prompt(s types.Settings, mode types.ResearchMode, query string, video *types.VideoContext) string {
	if mode == types.ModeVideo && video == nil {
		return query
	}
	tpl := DefaultTemplate(mode)
	if s.UseCustomTemplates {
		if custom := strings.TrimSpace(s.Templates[mode]); custom != "" {
			tpl = custom
			if !strings.Contains(tpl, QueryToken) {
				tpl += "\n\n" + QueryToken
			}
		}
	}
	url := ""
	if video != nil {
		url = video.URL
	}
	return ApplyTemplate(tpl, query, url)
}
