package domain

import (
	"strings"
	"unicode/utf8"
)

// mergeSplits joins consecutive pieces with separator into chunks of at most ChunkSize
// characters. When a chunk is emitted, pieces are dropped from its front until at most
// ChunkOverlap characters remain, so the next chunk starts with the tail of the previous one.
func (s *TextSplitter) mergeSplits(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var current []string
	total := 0

	joinedSep := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		pLen := utf8.RuneCountInString(p)

		if total+pLen+joinedSep() > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total > 0 && total+pLen+joinedSep() > s.ChunkSize) {
				drop := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}

		current = append(current, p)
		total += pLen
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
