// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newNormalizer() *Normalizer {
	return New(func() time.Time { return fixedNow }, nil)
}

func TestGeminiWithoutGrounding(t *testing.T) {
	raw := `{"candidates":[{"content":{"role":"model","parts":[{"text":"The capital of France is Paris."}]},"finishReason":"STOP"}],
		"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8,"totalTokenCount":20},"modelVersion":"gemini-2.5-flash"}`

	res, err := newNormalizer().Normalize(types.ProviderGemini, []byte(raw), Options{
		Query: "capital of France", Mode: types.ModeQuick, IncludeMetadata: true,
	})
	require.NoError(t, err)

	assert.Contains(t, res.BodyText, "The capital of France is Paris.")
	assert.True(t, strings.HasSuffix(res.BodyText, modelKnowledgeNote))
	assert.Empty(t, res.Citations)
	assert.Equal(t, "capital of France", res.Title)

	out := Render(res)
	assert.Contains(t, out, "no live web search was used")
	assert.NotContains(t, out, "### Sources")
	assert.Contains(t, out, "Tokens: 12 prompt, 8 response, 20 total")
	assert.Contains(t, out, "Provider: Gemini")
	assert.Contains(t, out, "Mode: Quick")
	assert.Contains(t, out, "Generated: 2026-05-01 09:30:00")
}

func TestGeminiVideoHasNoKnowledgeNote(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[{"text":"The video shows a cat."}]}}]}`
	res, err := newNormalizer().Normalize(types.ProviderGemini, []byte(raw), Options{Mode: types.ModeVideo})
	require.NoError(t, err)
	assert.Equal(t, "The video shows a cat.", res.BodyText)
}

func geminiGrounded(text string, urls []string, supports string) string {
	chunks := make([]string, len(urls))
	for i, u := range urls {
		chunks[i] = fmt.Sprintf(`{"web":{"uri":%q,"title":"site %d"}}`, u, i)
	}
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]},"groundingMetadata":{
		"webSearchQueries":["paris population","paris capital"],
		"groundingChunks":[%s],"groundingSupports":[%s]}}]}`, text, strings.Join(chunks, ","), supports)
}

func TestGeminiCitationsDeduplicatedByURL(t *testing.T) {
	tests := []struct {
		name string
		urls []string
		want int
	}{
		{"all distinct", []string{"https://a", "https://b", "https://c"}, 3},
		{"one duplicate", []string{"https://a", "https://b", "https://a"}, 2},
		{"all same", []string{"https://a", "https://a", "https://a", "https://a"}, 1},
		{"interleaved", []string{"https://a", "https://b", "https://a", "https://c", "https://b"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := geminiGrounded("Answer.", tt.urls, "")
			res, err := newNormalizer().Normalize(types.ProviderGemini, []byte(raw), Options{Mode: types.ModeQuick})
			require.NoError(t, err)
			assert.Len(t, res.Citations, tt.want)
			assert.NotContains(t, res.BodyText, modelKnowledgeNote)
			assert.Equal(t, strings.Count(Render(res), "]("), tt.want)
		})
	}
}

func TestGeminiInlineCitations(t *testing.T) {
	text := "Paris is the capital. It has 2M people."
	supports := `{"segment":{"startIndex":0,"endIndex":21},"groundingChunkIndices":[0,2]},
		{"segment":{"startIndex":22,"endIndex":39},"groundingChunkIndices":[3,1]}`
	raw := geminiGrounded(text, []string{"https://a", "https://b", "https://a", "https://c"}, supports)

	res, err := newNormalizer().Normalize(types.ProviderGemini, []byte(raw), Options{Mode: types.ModeComprehensive, IncludeMetadata: true})
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital.[1] It has 2M people.[2,3]", res.BodyText)
	require.Len(t, res.Citations, 3)
	assert.Equal(t, "https://a", res.Citations[0].URL)
	assert.Equal(t, "https://c", res.Citations[2].URL)

	out := Render(res)
	assert.Contains(t, out, "1. [site 0](https://a)")
	assert.Contains(t, out, "Search queries: paris population; paris capital")
}

func TestGeminiNoCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"empty candidates", `{"candidates":[]}`, "no candidates"},
		{"blocked prompt", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "SAFETY"},
		{"no parts", `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`, "MAX_TOKENS"},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, "no text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newNormalizer().Normalize(types.ProviderGemini, []byte(tt.raw), Options{})
			assert.ErrorIs(t, err, types.ErrNoCandidate)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		provider types.ProviderID
		raw      string
	}{
		{types.ProviderGemini, `not json`},
		{types.ProviderGemini, `{"candidates":"x"}`},
		{types.ProviderPerplexity, `{"choices":`},
		{types.ProviderTavily, `[1,2,3]`},
		{types.ProviderTavily, `<html>`},
		{types.ProviderExa, `{"results":"none"}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider)+" "+tt.raw, func(t *testing.T) {
			_, err := newNormalizer().Normalize(tt.provider, []byte(tt.raw), Options{})
			assert.ErrorIs(t, err, types.ErrMalformedResponse)
		})
	}
}

func TestNormalizeUnknownProvider(t *testing.T) {
	_, err := newNormalizer().Normalize("bing", []byte(`{}`), Options{})
	assert.ErrorIs(t, err, types.ErrUnknownProvider)
}

const perplexityResponse = `{
	"id":"abc","model":"sonar-pro","object":"chat.completion","created":1,
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant",
		"content":"<think>weighing sources</think>\nGo 1.25 was released in August 2025 [1][2]."}}],
	"citations":["https://go.dev/blog/go1.25","https://go.dev/doc/go1.25"],
	"search_results":[
		{"title":"Go 1.25 is released","url":"https://go.dev/blog/go1.25","date":"2025-08-12"},
		{"title":"Go 1.25 Release Notes","url":"https://go.dev/doc/go1.25"},
		{"title":"Extra","url":"https://example.com/extra"}],
	"related_questions":["What is new in Go 1.25?"," "],
	"images":[{"image_url":"https://img.test/gopher.png","origin_url":"https://go.dev"}],
	"usage":{"prompt_tokens":10,"completion_tokens":30,"total_tokens":40,"cost":{"total_cost":0.0062}}
}`

func TestPerplexity(t *testing.T) {
	res, err := newNormalizer().Normalize(types.ProviderPerplexity, []byte(perplexityResponse), Options{
		Query: "latest go", Mode: types.ModeComprehensive, IncludeMetadata: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Go 1.25 was released in August 2025 [1][2].", res.BodyText)
	require.Len(t, res.Citations, 3)
	assert.Equal(t, types.Citation{Title: "Go 1.25 is released", URL: "https://go.dev/blog/go1.25"}, res.Citations[0])
	assert.Equal(t, "Go 1.25 Release Notes", res.Citations[1].Title)
	assert.Equal(t, []string{"What is new in Go 1.25?"}, res.RelatedQuestions)
	assert.Empty(t, res.Images, "images need IncludeImages")

	out := Render(res)
	assert.Contains(t, out, "### Related questions\n\n- What is new in Go 1.25?")
	assert.Contains(t, out, "Tokens: 10 prompt, 30 response, 40 total")
	assert.Contains(t, out, "Cost: $0.0062")
	assert.Contains(t, out, "Model: sonar-pro")

	res, err = newNormalizer().Normalize(types.ProviderPerplexity, []byte(perplexityResponse), Options{IncludeImages: true})
	require.NoError(t, err)
	require.Len(t, res.Images, 1)
	assert.Equal(t, "https://img.test/gopher.png", res.Images[0].URL)
	assert.Empty(t, res.Metadata, "footer is off without IncludeMetadata")
}

func TestPerplexityCitationsOff(t *testing.T) {
	res, err := newNormalizer().Normalize(types.ProviderPerplexity, []byte(perplexityResponse), Options{OmitCitations: true})
	require.NoError(t, err)
	assert.Empty(t, res.Citations)
	assert.Equal(t, []string{"What is new in Go 1.25?"}, res.RelatedQuestions)
	assert.NotContains(t, Render(res), "### Sources")
}

func TestPerplexityEmptyContent(t *testing.T) {
	_, err := newNormalizer().Normalize(types.ProviderPerplexity,
		[]byte(`{"choices":[{"message":{"role":"assistant","content":"<think>only thoughts</think>"}}]}`), Options{})
	assert.ErrorIs(t, err, types.ErrNoCandidate)

	_, err = newNormalizer().Normalize(types.ProviderPerplexity, []byte(`{"choices":[]}`), Options{})
	assert.ErrorIs(t, err, types.ErrNoCandidate)
}

const tavilyResponse = `{
	"query":"solid state batteries",
	"answer":"Solid state batteries use a solid electrolyte.",
	"images":["https://img.test/a.png",{"url":"https://img.test/b.png","description":"cell diagram"}],
	"results":[
		{"title":"Solid-state battery","url":"https://en.wikipedia.org/wiki/Solid-state_battery","content":"A solid-state battery is a battery technology...","score":0.87345},
		{"title":"","url":"https://example.com/ssb","content":"Second snippet","score":0.5}
	],
	"response_time":1.234
}`

func TestTavily(t *testing.T) {
	res, err := newNormalizer().Normalize(types.ProviderTavily, []byte(tavilyResponse), Options{Query: "solid state batteries", IncludeMetadata: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.BodyText, "## Summary\n\nSolid state batteries use a solid electrolyte."))
	assert.Contains(t, res.BodyText, "### 1. [Solid-state battery](https://en.wikipedia.org/wiki/Solid-state_battery)")
	assert.Contains(t, res.BodyText, "*Relevance: 87.3%*")
	assert.Contains(t, res.BodyText, "*Relevance: 50.0%*")
	assert.Contains(t, res.BodyText, "### 2. [https://example.com/ssb](https://example.com/ssb)")
	assert.Len(t, res.Citations, 2)
	assert.Empty(t, res.Images)
	assert.Contains(t, Render(res), "Response time: 1.23s")

	res, err = newNormalizer().Normalize(types.ProviderTavily, []byte(tavilyResponse), Options{IncludeImages: true})
	require.NoError(t, err)
	assert.Equal(t, []types.Image{
		{URL: "https://img.test/a.png"},
		{URL: "https://img.test/b.png", Description: "cell diagram"},
	}, res.Images)
	assert.Contains(t, Render(res), "![cell diagram](https://img.test/b.png)")
}

func TestTavilyNoResults(t *testing.T) {
	res, err := newNormalizer().Normalize(types.ProviderTavily, []byte(`{"results":[]}`), Options{IncludeImages: true})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", res.BodyText)
	assert.Empty(t, res.Images)
	assert.NotContains(t, Render(res), "### Images")
}

func exaResponse(n int) string {
	results := make([]string, n)
	for i := range results {
		results[i] = fmt.Sprintf(`{"title":"Paper %d","url":"https://exa.test/%d","publishedDate":"2025-01-0%dT00:00:00.000Z",
			"author":"A. Author","score":0.%d5,"text":"Body text %d","highlights":["First  highlight %d","Second"]}`, i+1, i+1, i%9+1, i%9+1, i+1, i+1)
	}
	return fmt.Sprintf(`{"resolvedSearchType":"neural","results":[%s],"costDollars":{"total":0.005}}`, strings.Join(results, ","))
}

func TestExaRendersEveryReturnedResult(t *testing.T) {
	res, err := newNormalizer().Normalize(types.ProviderExa, []byte(exaResponse(12)), Options{Mode: types.ModeDeep, IncludeMetadata: true})
	require.NoError(t, err)

	assert.Len(t, res.Citations, 12)
	assert.Equal(t, 12, strings.Count(res.BodyText, "\n### ")+boolInt(strings.HasPrefix(res.BodyText, "### ")))
	assert.Contains(t, res.BodyText, "### 12. [Paper 12](https://exa.test/12)")
	assert.Contains(t, res.BodyText, "*A. Author · 2025-01-01*")
	assert.Contains(t, res.BodyText, "- First highlight 1\n- Second")
	assert.NotContains(t, res.BodyText, "Body text 1\n", "highlights replace the text")
	assert.Contains(t, res.BodyText, "*Relevance: 15.0%*")

	out := Render(res)
	assert.Contains(t, out, "Search type: neural")
	assert.Contains(t, out, "Cost: $0.0050")
}

func TestExaContextAndText(t *testing.T) {
	raw := `{"context":"Combined context.","results":[{"title":"T","url":"https://x.test","text":"Only text"}]}`
	res, err := newNormalizer().Normalize(types.ProviderExa, []byte(raw), Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.BodyText, "## Summary\n\nCombined context."))
	assert.Contains(t, res.BodyText, "Only text")
	assert.NotContains(t, res.BodyText, "Relevance")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "87.3%", FormatScore(0.87345))
	assert.Equal(t, "100.0%", FormatScore(1))
	assert.Equal(t, "0.0%", FormatScore(0))
	assert.Equal(t, "4.6%", FormatScore(0.0456))
}

func TestFailMessages(t *testing.T) {
	failed := func(status int) error {
		return fmt.Errorf("sending: %w", &types.ProviderRequestFailed{Provider: types.ProviderGemini, Status: status, Body: `{"error":"x"}`})
	}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"401", failed(http.StatusUnauthorized), "Check your Gemini API key"},
		{"403", failed(http.StatusForbidden), "forbidden"},
		{"429", failed(http.StatusTooManyRequests), "Rate limited"},
		{"500", failed(http.StatusInternalServerError), "server error (HTTP 500)"},
		{"503", failed(http.StatusServiceUnavailable), "server error (HTTP 503)"},
		{"418", failed(http.StatusTeapot), `HTTP 418. Response: {"error":"x"}`},
		{"network", &types.ProviderRequestFailed{Provider: types.ProviderGemini, Err: errors.New("connection refused")}, "Could not reach Gemini: connection refused"},
		{"cancelled", &types.ProviderRequestFailed{Provider: types.ProviderGemini, Err: context.Canceled}, "cancelled"},
		{"timeout", fmt.Errorf("post: %w", context.DeadlineExceeded), "timed out"},
		{"invalid query", fmt.Errorf("%w: query is empty", types.ErrInvalidQuery), "Invalid query: query is empty"},
		{"unknown provider", fmt.Errorf("%w: %q", types.ErrUnknownProvider, "bing"), `Unknown provider: "bing"`},
		{"mismatch", types.ErrModeProviderMismatch, "not available for the selected provider"},
		{"profile", types.ErrProfileNotFound, "No settings are configured"},
		{"api key", fmt.Errorf("%w for Gemini", types.ErrMissingAPIKey), "No API key is configured for Gemini"},
		{"no candidate", fmt.Errorf("%w: no candidates", types.ErrNoCandidate), "returned no answer. no candidates"},
		{"malformed", types.ErrMalformedResponse, "could not be read"},
		{"busy", types.ErrBusy, "already in progress"},
		{"other", errors.New("boom"), "Unexpected error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newNormalizer().Fail(types.ProviderGemini, tt.err, Options{Query: "q", Warnings: []string{"switched"}})
			require.NotNil(t, res)
			assert.True(t, res.IsError)
			assert.Contains(t, res.BodyText, tt.want)

			out := Render(res)
			assert.True(t, strings.HasPrefix(out, ErrorPrefix), out)
			assert.Contains(t, out, "> switched")
		})
	}
}

func TestRateLimitMessageIsSpecific(t *testing.T) {
	limited := Message(types.ProviderExa, &types.ProviderRequestFailed{Provider: types.ProviderExa, Status: 429})
	generic := Message(types.ProviderExa, &types.ProviderRequestFailed{Provider: types.ProviderExa, Status: 409})
	assert.Contains(t, limited, "Rate limited by Exa")
	assert.NotEqual(t, generic, limited)
}

func TestRenderOrder(t *testing.T) {
	res := &types.NormalizedResult{
		Title:            "Query",
		BodyText:         "Body.",
		Citations:        []types.Citation{{URL: "https://www.example.com/a"}, {Title: "B", URL: "https://b.test"}},
		RelatedQuestions: []string{"Next?"},
		Images:           []types.Image{{URL: "https://img.test/x.png", Description: "x"}},
		Warnings:         []string{"Switched provider."},
		Metadata:         []types.MetadataLine{{Label: "Provider", Value: "Exa"}, {Label: "Mode", Value: "Quick"}},
	}
	out := Render(res)

	order := []string{"## Query", "Body.", "### Sources", "### Related questions", "### Images", "> [!warning]", "---", "*Provider: Exa · Mode: Quick*"}
	last := -1
	for _, s := range order {
		i := strings.Index(out, s)
		require.GreaterOrEqual(t, i, 0, "missing %q in\n%s", s, out)
		assert.Greater(t, i, last, "%q out of order", s)
		last = i
	}
	assert.Contains(t, out, "1. [example.com](https://www.example.com/a)")
	assert.Contains(t, out, "2. [B](https://b.test)")
	assert.Empty(t, Render(nil))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
