package domain

import (
	"context"
	"strings"
)

// Document is a health topic returned by a document source.
// Title is the natural dedup key.
type Document struct {
	Title   string
	Summary string
	URL     string
}

// Valid reports whether both title and summary carry text.
func (d Document) Valid() bool {
	return strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.Summary) != ""
}

// DocumentSource looks up documents for a search phrase.
// Implementations degrade every failure to an empty result.
type DocumentSource interface {
	Search(ctx context.Context, query string, maxResults int) []Document
}

// CandidateSet is an insertion-ordered set of documents keyed by title.
type CandidateSet struct {
	docs  []Document
	index map[string]int
}

// NewCandidateSet returns an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{index: make(map[string]int)}
}

// Add inserts doc unless a document with the same title is already present.
// It reports whether the document was inserted.
func (s *CandidateSet) Add(doc Document) bool {
	if _, ok := s.index[doc.Title]; ok {
		return false
	}
	s.index[doc.Title] = len(s.docs)
	s.docs = append(s.docs, doc)
	return true
}

// Len returns the number of documents.
func (s *CandidateSet) Len() int {
	return len(s.docs)
}

// Documents returns the documents in first-seen order.
func (s *CandidateSet) Documents() []Document {
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// RankedContext is the narrowed, most-relevant-first list of documents fed to synthesis.
type RankedContext []Document

// Render formats the documents as "Topic / Summary" stanzas separated by a blank line.
func (rc RankedContext) Render() string {
	stanzas := make([]string, 0, len(rc))
	for _, d := range rc {
		stanzas = append(stanzas, "Topic: "+d.Title+"\nSummary: "+d.Summary)
	}
	return strings.Join(stanzas, "\n\n")
}

// FallbackSource consults Fallback only when Primary returns nothing.
type FallbackSource struct {
	Primary  DocumentSource
	Fallback DocumentSource
}

// Search implements DocumentSource.
func (f FallbackSource) Search(ctx context.Context, query string, maxResults int) []Document {
	docs := f.Primary.Search(ctx, query, maxResults)
	if len(docs) > 0 || f.Fallback == nil {
		return docs
	}
	return f.Fallback.Search(ctx, query, maxResults)
}

var _ DocumentSource = FallbackSource{}
