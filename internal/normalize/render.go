// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrorPrefix starts the first line of every rendered error result.
const ErrorPrefix = "> [!error]"

// Render formats r as Markdown in a fixed order: header, body, sources,
// related questions, images, warnings, metadata footer. Error results render
// as a single error callout.
func Render(r *types.NormalizedResult) string {
	if r == nil {
		return ""
	}
	if r.IsError {
		return renderError(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", r.Title)
	if body := strings.TrimSpace(r.BodyText); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	if len(r.Citations) > 0 {
		b.WriteString("### Sources\n\n")
		for i, c := range r.Citations {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, escapeLinkText(citationTitle(c)), c.URL)
		}
		b.WriteString("\n")
	}

	if len(r.RelatedQuestions) > 0 {
		b.WriteString("### Related questions\n\n")
		for _, q := range r.RelatedQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
		b.WriteString("\n")
	}

	if len(r.Images) > 0 {
		b.WriteString("### Images\n\n")
		for _, img := range r.Images {
			fmt.Fprintf(&b, "![%s](%s)\n", escapeLinkText(img.Description), img.URL)
		}
		b.WriteString("\n")
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "> [!warning]\n> %s\n\n", w)
	}

	if len(r.Metadata) > 0 {
		b.WriteString("---\n")
		parts := make([]string, len(r.Metadata))
		for i, m := range r.Metadata {
			parts[i] = fmt.Sprintf("%s: %s", m.Label, m.Value)
		}
		fmt.Fprintf(&b, "*%s*\n", strings.Join(parts, " · "))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderError(r *types.NormalizedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Research failed\n", ErrorPrefix)
	for _, line := range strings.Split(strings.TrimSpace(r.BodyText), "\n") {
		fmt.Fprintf(&b, "> %s\n", line)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, ">\n> %s\n", w)
	}
	return b.String()
}

// citationTitle falls back to the host name when a citation has no title.
func citationTitle(c types.Citation) string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return c.URL
}
