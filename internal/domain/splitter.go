package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of trailing characters a chunk shares with the next one.
	DefaultChunkOverlap = 100
)

// DefaultSeparators are tried in order: paragraphs, lines, words, then characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// TextSplitter splits text recursively on a separator hierarchy until every piece
// fits ChunkSize, then merges neighbouring pieces back up with ChunkOverlap.
type TextSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewTextSplitter validates the sizes and returns a splitter using DefaultSeparators.
func NewTextSplitter(chunkSize, chunkOverlap int) (*TextSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &TextSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}, nil
}

// Split returns the chunks of text. Blank text yields no chunks.
func (s *TextSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitRecursive(text, s.Separators)
}

func (s *TextSplitter) splitRecursive(text string, separators []string) []string {
	separator := ""
	var rest []string
	if len(separators) > 0 {
		separator = separators[len(separators)-1]
	}
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			rest = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	for _, p := range splitOn(text, separator) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}

	var result []string
	var fitting []string
	for _, p := range pieces {
		if utf8.RuneCountInString(p) < s.ChunkSize {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			result = append(result, s.mergeSplits(fitting, separator)...)
			fitting = nil
		}
		if len(rest) == 0 {
			result = append(result, p)
			continue
		}
		result = append(result, s.splitRecursive(p, rest)...)
	}
	if len(fitting) > 0 {
		result = append(result, s.mergeSplits(fitting, separator)...)
	}
	return result
}

func splitOn(text, separator string) []string {
	if separator == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	return strings.Split(text, separator)
}
