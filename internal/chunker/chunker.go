// Package chunker splits cleaned text into overlapping sentence-packed segments.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSize is the soft target chunk length in characters.
	DefaultSize = 500
	// DefaultOverlap is the number of trailing characters carried into the next chunk.
	DefaultOverlap = 100

	sentenceSep = ". "
)

// Chunker packs sentences into chunks of roughly chunkSize characters. When a
// chunk closes, the next one is seeded with the raw trailing chunkOverlap
// characters of the closed buffer, not with whole sentences.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
// Non-positive size falls back to DefaultSize; negative overlap is treated as zero.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Split returns the chunks for text. Blank text yields nil. A single sentence
// longer than the chunk size is emitted whole.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	for _, sentence := range strings.Split(text, sentenceSep) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		piece := terminate(sentence)
		pieceLen := utf8.RuneCountInString(piece)

		if bufLen+utf8.RuneCountInString(sentence) < c.chunkSize {
			buf.WriteString(piece)
			bufLen += pieceLen
			continue
		}

		raw := buf.String()
		if closed := strings.TrimSpace(raw); closed != "" {
			chunks = append(chunks, closed)
		}
		seed := ""
		if c.chunkOverlap > 0 && bufLen > c.chunkOverlap {
			seed = tail(raw, c.chunkOverlap)
		}
		buf.Reset()
		buf.WriteString(seed)
		buf.WriteString(piece)
		bufLen = utf8.RuneCountInString(seed) + pieceLen
	}

	if last := strings.TrimSpace(buf.String()); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// Chunk splits text with the given size and overlap.
func Chunk(text string, chunkSize, overlap int) []string {
	return NewChunker(chunkSize, overlap).Split(text)
}

// terminate restores the separator removed by the split. A sentence that
// already ends with a period only gets the trailing space.
func terminate(sentence string) string {
	if strings.HasSuffix(sentence, ".") {
		return sentence + " "
	}
	return sentence + sentenceSep
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
