// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// snippetChars bounds the text shown per search result.
const snippetChars = 500

func parseObject(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", types.ErrMalformedResponse)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected a JSON object", types.ErrMalformedResponse)
	}
	if r := doc.Get("results"); r.Exists() && !r.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: results is not an array", types.ErrMalformedResponse)
	}
	return doc, nil
}

func normalizeTavily(raw []byte, res *types.NormalizedResult, opts Options) error {
	doc, err := parseObject(raw)
	if err != nil {
		return err
	}

	var b strings.Builder
	writeSummary(&b, doc.Get("answer").String())
	writeResults(&b, doc.Get("results").Array(), res, func(r gjson.Result) []string {
		return []string{clip(strings.TrimSpace(r.Get("content").String()), snippetChars)}
	})
	res.BodyText = strings.TrimSpace(b.String())

	if opts.IncludeImages {
		res.Images = collectImages(doc.Get("images").Array(), "url", "description")
	}
	for _, q := range doc.Get("follow_up_questions").Array() {
		if s := strings.TrimSpace(q.String()); s != "" {
			res.RelatedQuestions = append(res.RelatedQuestions, s)
		}
	}
	if rt := doc.Get("response_time"); rt.Exists() {
		res.AddMetadata("Response time", fmt.Sprintf("%.2fs", rt.Float()))
	}
	return nil
}

func normalizeExa(raw []byte, res *types.NormalizedResult, opts Options) error {
	doc, err := parseObject(raw)
	if err != nil {
		return err
	}

	var b strings.Builder
	writeSummary(&b, doc.Get("context").String())
	writeResults(&b, doc.Get("results").Array(), res, func(r gjson.Result) []string {
		var lines []string
		if meta := exaByline(r); meta != "" {
			lines = append(lines, meta)
		}
		if hs := r.Get("highlights").Array(); len(hs) > 0 {
			var bullets []string
			for _, h := range hs {
				if s := strings.TrimSpace(h.String()); s != "" {
					bullets = append(bullets, "- "+strings.Join(strings.Fields(s), " "))
				}
			}
			lines = append(lines, strings.Join(bullets, "\n"))
		} else if t := strings.TrimSpace(r.Get("text").String()); t != "" {
			lines = append(lines, clip(t, snippetChars))
		}
		return lines
	})
	res.BodyText = strings.TrimSpace(b.String())

	if opts.IncludeImages {
		var imgs []gjson.Result
		for _, r := range doc.Get("results").Array() {
			if r.Get("image").Exists() {
				imgs = append(imgs, r)
			}
		}
		res.Images = collectImages(imgs, "image", "title")
	}
	res.AddMetadata("Search type", doc.Get("resolvedSearchType").String())
	if cost := doc.Get("costDollars.total"); cost.Exists() {
		res.AddMetadata("Cost", fmt.Sprintf("$%.4f", cost.Float()))
	}
	return nil
}

func writeSummary(b *strings.Builder, summary string) {
	if s := strings.TrimSpace(summary); s != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(s)
		b.WriteString("\n\n")
	}
}

// writeResults writes one subsection per result and records every result
// URL as a citation. detail returns the paragraphs shown under the heading.
func writeResults(b *strings.Builder, results []gjson.Result, res *types.NormalizedResult, detail func(gjson.Result) []string) {
	if len(results) == 0 {
		b.WriteString("No results found.\n")
		return
	}
	b.WriteString("## Results\n\n")
	for i, r := range results {
		url := r.Get("url").String()
		t := strings.TrimSpace(r.Get("title").String())
		if t == "" {
			t = url
		}
		res.AddCitation(types.Citation{Title: t, URL: url})

		if url != "" {
			fmt.Fprintf(b, "### %d. [%s](%s)\n\n", i+1, escapeLinkText(t), url)
		} else {
			fmt.Fprintf(b, "### %d. %s\n\n", i+1, t)
		}
		for _, p := range detail(r) {
			if p != "" {
				b.WriteString(p)
				b.WriteString("\n\n")
			}
		}
		if score := r.Get("score"); score.Exists() {
			fmt.Fprintf(b, "*Relevance: %s*\n\n", FormatScore(score.Float()))
		}
	}
}

// FormatScore renders a 0..1 relevance score as a percentage with one
// decimal place.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

func exaByline(r gjson.Result) string {
	var parts []string
	if a := strings.TrimSpace(r.Get("author").String()); a != "" {
		parts = append(parts, a)
	}
	if d := r.Get("publishedDate").String(); len(d) >= 10 {
		parts = append(parts, d[:10])
	}
	if len(parts) == 0 {
		return ""
	}
	return "*" + strings.Join(parts, " · ") + "*"
}

// collectImages accepts plain URL strings or objects with urlKey and
// descKey fields.
func collectImages(items []gjson.Result, urlKey, descKey string) []types.Image {
	var out []types.Image
	for _, it := range items {
		if it.Type == gjson.String {
			if u := it.String(); u != "" {
				out = append(out, types.Image{URL: u})
			}
			continue
		}
		if u := it.Get(urlKey).String(); u != "" {
			out = append(out, types.Image{URL: u, Description: it.Get(descKey).String()})
		}
	}
	return out
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", "\\[", "]", "\\]").Replace(s)
}
