// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"regexp"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var (
	videoIDPattern = regexp.MustCompile(`(?i)(?:^|[/.])(?:youtube\.com/(?:watch\?(?:[^#\s]*&)?v=|shorts/|embed/|live/|v/)|youtube-nocookie\.com/embed/|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)
	urlPattern     = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)
)

// ExtractVideoID returns the 11-character video id from a watch, short
// link, shorts, embed, live, or music URL.
func ExtractVideoID(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// FindVideo returns a VideoContext for the first video URL in text, or nil.
func FindVideo(text string) *types.VideoContext {
	for _, u := range urlPattern.FindAllString(text, -1) {
		if id, ok := ExtractVideoID(u); ok {
			return &types.VideoContext{URL: WatchURL(id), VideoID: id}
		}
	}
	return nil
}
