package utils

import (
	"strings"
	"unicode/utf8"
)

// MaxSegmentLength is the character limit of one SMS segment.
const MaxSegmentLength = 160

// SplitSegments breaks text on single spaces into chunks of at most limit characters.
// Words are never split; a word longer than limit becomes a segment of its own.
func SplitSegments(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxSegmentLength
	}

	var (
		segments []string
		current  strings.Builder
		size     int
	)
	flush := func() {
		if size > 0 {
			segments = append(segments, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, word := range strings.Split(text, " ") {
		if word == "" {
			continue
		}
		n := utf8.RuneCountInString(word)
		switch {
		case size == 0:
		case size+1+n <= limit:
			current.WriteByte(' ')
			size++
		default:
			flush()
		}
		current.WriteString(word)
		size += n
		if size >= limit {
			flush()
		}
	}
	flush()

	return segments
}
