// Package sanitize reduces free text to what downstream renderers accept.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultChunkSize bounds the resume context sent along with questions.
const DefaultChunkSize = 3000

// Latin1 decomposes s (NFKD), drops every rune outside Latin-1 and removes
// control characters except tab, newline and carriage return.
func Latin1(s string) string {
	if s == "" {
		return ""
	}

	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r > 0xFF || isControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r <= 0x1F:
		return true
	case r >= 0x7F && r <= 0x9F:
		return true
	}
	return false
}

// Truncate cuts s to at most limit runes and appends marker when it did.
func Truncate(s string, limit int, marker string) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + marker
}

// Chunk wraps text into chunks of at most size runes. Whitespace runs are
// collapsed to single spaces and words longer than size are split.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var (
		chunks  []string
		current strings.Builder
		length  int
	)

	flush := func() {
		if length > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > size {
			flush()
			chunks = append(chunks, string(runes[:size]))
			runes = runes[size:]
		}
		if len(runes) == 0 {
			continue
		}

		need := len(runes)
		if length > 0 {
			need++
		}
		if length+need > size {
			flush()
			need = len(runes)
		}
		if length > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(string(runes))
		length += need
	}
	flush()

	return chunks
}

// OrDefault returns the trimmed s, or def when s is blank.
func OrDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
