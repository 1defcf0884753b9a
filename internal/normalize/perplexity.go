// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// thinkPattern matches the reasoning block that reasoning models put before
// their answer.
var thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

func normalizePerplexity(raw []byte, res *types.NormalizedResult, opts Options) error {
	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: no choices", types.ErrNoCandidate)
	}
	content := strings.TrimSpace(thinkPattern.ReplaceAllString(resp.Choices[0].Message.Content, ""))
	if content == "" {
		return fmt.Errorf("%w: empty message content", types.ErrNoCandidate)
	}
	res.BodyText = content

	doc := gjson.ParseBytes(raw)

	// citations is ordered to match the [n] markers in the content, so it
	// goes first; search_results then fills in titles.
	if !opts.OmitCitations {
		for _, c := range doc.Get("citations").Array() {
			res.AddCitation(types.Citation{URL: c.String()})
		}
		for _, r := range doc.Get("search_results").Array() {
			res.AddCitation(types.Citation{Title: r.Get("title").String(), URL: r.Get("url").String()})
		}
	}

	for _, q := range doc.Get("related_questions").Array() {
		if s := strings.TrimSpace(q.String()); s != "" {
			res.RelatedQuestions = append(res.RelatedQuestions, s)
		}
	}

	if opts.IncludeImages {
		for _, img := range doc.Get("images").Array() {
			if img.Type == gjson.String {
				res.Images = append(res.Images, types.Image{URL: img.String()})
				continue
			}
			if u := img.Get("image_url").String(); u != "" {
				res.Images = append(res.Images, types.Image{URL: u, Description: img.Get("origin_url").String()})
			}
		}
	}

	res.AddMetadata("Model", resp.Model)
	if u := resp.Usage; u.TotalTokens > 0 {
		res.AddMetadata("Tokens", fmt.Sprintf("%d prompt, %d response, %d total", u.PromptTokens, u.CompletionTokens, u.TotalTokens))
	}
	if cost := doc.Get("usage.cost.total_cost"); cost.Exists() {
		res.AddMetadata("Cost", fmt.Sprintf("$%.4f", cost.Float()))
	}
	return nil
}
