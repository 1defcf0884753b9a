// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Span attaches citation numbers to the text ending at byte offset End.
type Span struct {
	End     int
	Indices []int
}

// InsertCitationMarkers splices a "[n,m]" marker into text at each span's
// end offset. Spans are applied from the largest offset to the smallest so
// that an insertion never shifts an offset still to be processed. Offsets
// past the end of text are clamped; offsets inside a multi-byte character
// move forward to the next character boundary. Spans sharing an offset are
// merged into one marker.
func InsertCitationMarkers(text string, spans []Span) string {
	byEnd := make(map[int][]int)
	for _, s := range spans {
		if len(s.Indices) == 0 || s.End < 0 {
			continue
		}
		end := s.End
		if end > len(text) {
			end = len(text)
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		byEnd[end] = append(byEnd[end], s.Indices...)
	}

	ends := make([]int, 0, len(byEnd))
	for e := range byEnd {
		ends = append(ends, e)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ends)))

	for _, e := range ends {
		text = text[:e] + marker(byEnd[e]) + text[e:]
	}
	return text
}

// marker formats sorted, deduplicated citation numbers as "[1,3]".
func marker(indices []int) string {
	seen := make(map[int]bool, len(indices))
	var uniq []int
	for _, i := range indices {
		if i > 0 && !seen[i] {
			seen[i] = true
			uniq = append(uniq, i)
		}
	}
	if len(uniq) == 0 {
		return ""
	}
	sort.Ints(uniq)
	parts := make([]string, len(uniq))
	for i, n := range uniq {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
