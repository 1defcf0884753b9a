// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// tavilyBackend calls the Tavily search endpoint. The API key travels in
// the body.
type tavilyBackend struct {
	base string
}

func (b *tavilyBackend) build(in buildInput) (string, map[string]string, any, error) {
	s := in.profile.Search
	if s == nil {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no search parameters", in.profile.Mode, in.profile.Provider)
	}
	body := map[string]any{
		"api_key":             in.apiKey,
		"query":               in.query,
		"search_depth":        s.SearchDepth,
		"max_results":         positive(s.ResultCount),
		"include_domains":     s.IncludeDomains,
		"exclude_domains":     s.ExcludeDomains,
		"time_range":          tavilyTimeRange(s.Recency),
		"start_date":          s.StartPublishedDate,
		"end_date":            s.EndPublishedDate,
		"include_answer":      s.IncludeAnswer,
		"include_images":      s.IncludeImages,
		"include_raw_content": s.IncludeRawContent,
	}
	url := strings.TrimRight(b.base, "/") + "/search"
	return url, map[string]string{}, Prune(body), nil
}

// exaBackend calls the Exa search endpoint. The API key travels in the
// x-api-key header.
type exaBackend struct {
	base string
}

func (b *exaBackend) build(in buildInput) (string, map[string]string, any, error) {
	s := in.profile.Search
	if s == nil {
		return "", nil, nil, fmt.Errorf("profile %s/%s has no search parameters", in.profile.Mode, in.profile.Provider)
	}
	start := s.StartPublishedDate
	if start == "" && s.Recency.IsSet() {
		start = recencyStart(in.now, s.Recency)
	}
	body := map[string]any{
		"query":              in.query,
		"type":               s.SearchType,
		"numResults":         positive(s.ResultCount),
		"includeDomains":     s.IncludeDomains,
		"excludeDomains":     s.ExcludeDomains,
		"startPublishedDate": start,
		"endPublishedDate":   s.EndPublishedDate,
		"contents": map[string]any{
			"text":       trueOrNil(s.IncludeText),
			"highlights": trueOrNil(s.IncludeHighlights),
		},
	}
	url := strings.TrimRight(b.base, "/") + "/search"
	return url, map[string]string{"x-api-key": in.apiKey}, Prune(body), nil
}

// Prune removes nil values, empty strings, empty slices, and empty objects
// from v, recursing into nested maps and slices. Objects left empty after
// pruning are removed too. False and zero are kept.
func Prune(v map[string]any) map[string]any {
	out, _ := pruneValue(v)
	m, _ := out.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func pruneValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		return x, x != ""
	case []string:
		return x, len(x) > 0
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if p, keep := pruneValue(val); keep {
				out[k] = p
			}
		}
		return out, len(out) > 0
	case []any:
		out := make([]any, 0, len(x))
		for _, val := range x {
			if p, keep := pruneValue(val); keep {
				out = append(out, p)
			}
		}
		return out, len(out) > 0
	}
	return v, true
}

func positive(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}

func trueOrNil(b bool) any {
	if !b {
		return nil
	}
	return true
}

// tavilyTimeRange maps a recency filter onto Tavily's time_range, which has
// no unit below a day.
func tavilyTimeRange(r types.RecencyFilter) string {
	switch {
	case !r.IsSet():
		return ""
	case r == types.RecencyHour:
		return string(types.RecencyDay)
	}
	return string(r)
}

// recencyStart converts a recency filter into an ISO 8601 start date.
func recencyStart(now time.Time, r types.RecencyFilter) string {
	var from time.Time
	switch r {
	case types.RecencyHour:
		from = now.Add(-time.Hour)
	case types.RecencyDay:
		from = now.AddDate(0, 0, -1)
	case types.RecencyWeek:
		from = now.AddDate(0, 0, -7)
	case types.RecencyMonth:
		from = now.AddDate(0, -1, 0)
	case types.RecencyYear:
		from = now.AddDate(-1, 0, 0)
	default:
		return ""
	}
	return from.UTC().Format("2006-01-02T15:04:05.000Z")
}
