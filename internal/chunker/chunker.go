// Package chunker splits cleaned document text into overlapping windows
// cut at natural break points.
package chunker

import (
	"strings"
	"unicode"
)

// Default tuning values.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
	DefaultMinLength = 50
)

// Chunker produces overlapping text windows. At each window's right edge
// it searches backward, within the back half of the window, for a
// paragraph break, a sentence terminator followed by whitespace, a line
// break, then a word boundary, and cuts there when found.
type Chunker struct {
	chunkSize int
	overlap   int
	minLength int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target window size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent windows in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinLength sets the minimum chunk length; shorter slices are dropped.
func WithMinLength(min int) Option {
	return func(c *Chunker) {
		if min >= 0 {
			c.minLength = min
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split cuts text into overlapping chunks. Text at or under the chunk
// size yields a single chunk when it meets the minimum length, otherwise
// nothing. The window start always advances past the previous start, so
// the loop terminates even when overlap >= chunk size.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.chunkSize {
		if len(text) >= c.minLength {
			return []string{text}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			if bp := c.findBreakPoint(text, start, end); bp > start {
				end = bp
			}
		}

		chunk := strings.TrimSpace(text[start:end])
		if len(chunk) >= c.minLength {
			chunks = append(chunks, chunk)
		}

		newStart := end - c.overlap
		if newStart <= start {
			newStart = end
		}
		start = newStart
	}

	return chunks
}

// findBreakPoint searches the back half of the window [start,end) for a
// natural cut point, in priority order. Returns end when none is found.
func (c *Chunker) findBreakPoint(text string, start, end int) int {
	half := start + c.chunkSize/2

	if p := strings.LastIndex(text[:end], "\n\n"); p > half {
		return p + 2
	}

	for i := end - 1; i > half; i-- {
		ch := text[i]
		if (ch == '.' || ch == '!' || ch == '?') && i+1 < len(text) && unicode.IsSpace(rune(text[i+1])) {
			return i + 1
		}
	}

	if p := strings.LastIndex(text[:end], "\n"); p > half {
		return p + 1
	}

	if p := strings.LastIndex(text[:end], " "); p > half {
		return p + 1
	}

	return end
}
