// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vault

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const maxSlugLength = 50

var (
	slugStrip   = regexp.MustCompile(`[\\/:*?"<>|#^\[\]]+`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	counterName = regexp.MustCompile(`^Research (\d+)\.md$`)
)

// frontMatter is the YAML header written above a saved conversation.
type frontMatter struct {
	Title    string   `yaml:"title"`
	Provider string   `yaml:"provider"`
	Mode     string   `yaml:"mode"`
	Video    string   `yaml:"video,omitempty"`
	Turns    int      `yaml:"turns"`
	Created  string   `yaml:"created"`
	Updated  string   `yaml:"updated"`
	Tags     []string `yaml:"tags"`
}

// FormatConversation renders c as a Markdown note. With includeMetadata the
// note starts with YAML front matter.
func FormatConversation(c types.Conversation, includeMetadata bool) (string, error) {
	var b strings.Builder
	if includeMetadata {
		fm := frontMatter{
			Title:    conversationTitle(c),
			Provider: c.Provider.DisplayName(),
			Mode:     c.Mode.DisplayName(),
			Turns:    len(c.Turns),
			Created:  c.Created.Format(time.RFC3339),
			Updated:  c.Updated.Format(time.RFC3339),
			Tags:     []string{"research", string(c.Mode)},
		}
		if c.Video != nil {
			fm.Video = c.Video.URL
		}
		data, err := yaml.Marshal(fm)
		if err != nil {
			return "", fmt.Errorf("marshaling front matter: %w", err)
		}
		b.WriteString("---\n")
		b.Write(data)
		b.WriteString("---\n\n")
	}

	fmt.Fprintf(&b, "# %s\n", conversationTitle(c))
	for _, t := range c.Turns {
		switch t.Role {
		case types.RoleUser:
			b.WriteString("\n## You\n\n")
		case types.RoleAssistant:
			fmt.Fprintf(&b, "\n## %s\n\n", c.Provider.DisplayName())
		default:
			continue
		}
		b.WriteString(strings.TrimSpace(t.Content))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func conversationTitle(c types.Conversation) string {
	if c.Title != "" {
		return c.Title
	}
	if q := c.FirstQuery(); q != "" {
		return q
	}
	return "Research conversation"
}

// FileName returns the vault-relative path for saving c under folder. The
// name is made unique against existing, which holds vault-relative paths.
func FileName(folder string, tpl types.FileNameTemplate, c types.Conversation, now time.Time, existing []string) string {
	var base string
	switch tpl {
	case types.FileNameQuery:
		base = Slug(c.FirstQuery())
		if base == "" {
			base = "Research " + now.Format("2006-01-02 150405")
		}
	case types.FileNameCounter:
		base = fmt.Sprintf("Research %d", nextCounter(existing))
	default:
		base = "Research " + now.Format("2006-01-02 150405")
	}
	return Unique(path.Join(cleanFolder(folder), base+".md"), existing)
}

// Slug turns a query into a filename stem: characters that are invalid in
// note names are removed, whitespace is collapsed, and the result is capped
// at maxSlugLength runes.
func Slug(query string) string {
	s := slugStrip.ReplaceAllString(query, " ")
	s = strings.TrimSpace(slugSpaces.ReplaceAllString(s, " "))
	s = strings.Trim(s, ".")
	r := []rune(s)
	if len(r) > maxSlugLength {
		s = strings.TrimSpace(string(r[:maxSlugLength]))
	}
	return s
}

// Unique returns p, or p with " 1", " 2", ... inserted before the extension,
// whichever is first absent from existing.
func Unique(p string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[strings.ToLower(e)] = true
	}
	if !taken[strings.ToLower(p)] {
		return p
	}
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d%s", stem, i, ext)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func nextCounter(existing []string) int {
	n := 0
	for _, e := range existing {
		m := counterName.FindStringSubmatch(path.Base(e))
		if m == nil {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil && v > n {
			n = v
		}
	}
	return n + 1
}
