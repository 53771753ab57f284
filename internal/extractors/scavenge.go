package extractors

import "strings"

// minRunLength filters out stray bytes that happen to be printable.
const minRunLength = 4

// ScavengeText collects printable character runs from a binary stream.
// NUL bytes are dropped first so UTF-16LE text with ASCII code points
// collapses into readable runs. Used by the legacy office extractors,
// which recover readable content without a full binary-format parse.
func ScavengeText(stream []byte) string {
	compact := make([]byte, 0, len(stream))
	for _, b := range stream {
		if b != 0 {
			compact = append(compact, b)
		}
	}

	var result strings.Builder
	var current strings.Builder

	flush := func() {
		if current.Len() >= minRunLength {
			if result.Len() > 0 {
				result.WriteByte('\n')
			}
			result.WriteString(current.String())
		}
		current.Reset()
	}

	for _, b := range compact {
		switch {
		case b >= 32 && b < 127:
			current.WriteByte(b)
		case b == '\r' || b == '\n' || b == '\t':
			current.WriteByte(' ')
		default:
			flush()
		}
	}
	flush()

	return strings.TrimSpace(result.String())
}
