// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// modelKnowledgeNote is appended when an answer was not grounded in search.
const modelKnowledgeNote = "*Note: this answer came from the model's own knowledge; no live web search was used.*"

func normalizeGemini(raw []byte, res *types.NormalizedResult) error {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return fmt.Errorf("%w: the prompt was blocked (%s)", types.ErrNoCandidate, fb.BlockReason)
		}
		return fmt.Errorf("%w: no candidates", types.ErrNoCandidate)
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil || cand.Content.Parts[0].Text == "" {
		if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
			return fmt.Errorf("%w: generation stopped (%s)", types.ErrNoCandidate, cand.FinishReason)
		}
		return fmt.Errorf("%w: candidate has no text", types.ErrNoCandidate)
	}
	text := cand.Content.Parts[0].Text

	gm := cand.GroundingMetadata
	if gm == nil || len(gm.GroundingChunks) == 0 {
		res.BodyText = strings.TrimSpace(text)
		if res.Mode != types.ModeVideo {
			res.BodyText += "\n\n" + modelKnowledgeNote
		}
		addGeminiUsage(&resp, res)
		return nil
	}

	// Chunk index to 1-based position in the deduplicated citation list.
	positions := make(map[int]int, len(gm.GroundingChunks))
	for i, c := range gm.GroundingChunks {
		if c == nil || c.Web == nil {
			continue
		}
		if pos := res.AddCitation(types.Citation{Title: c.Web.Title, URL: c.Web.URI}); pos > 0 {
			positions[i] = pos
		}
	}

	var spans []Span
	for _, s := range gm.GroundingSupports {
		if s == nil || s.Segment == nil || s.Segment.PartIndex != 0 {
			continue
		}
		var idx []int
		for _, ci := range s.GroundingChunkIndices {
			if pos, ok := positions[int(ci)]; ok {
				idx = append(idx, pos)
			}
		}
		spans = append(spans, Span{End: int(s.Segment.EndIndex), Indices: idx})
	}
	res.BodyText = strings.TrimSpace(InsertCitationMarkers(text, spans))

	if len(gm.WebSearchQueries) > 0 {
		res.AddMetadata("Search queries", strings.Join(gm.WebSearchQueries, "; "))
	}
	addGeminiUsage(&resp, res)
	return nil
}

func addGeminiUsage(resp *genai.GenerateContentResponse, res *types.NormalizedResult) {
	res.AddMetadata("Model", resp.ModelVersion)
	if u := resp.UsageMetadata; u != nil && u.TotalTokenCount > 0 {
		res.AddMetadata("Tokens", fmt.Sprintf("%d prompt, %d response, %d total",
			u.PromptTokenCount, u.CandidatesTokenCount, u.TotalTokenCount))
	}
}
