package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "can": true, "do": true, "for": true, "from": true, "how": true, "i": true,
	"in": true, "is": true, "it": true, "my": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "what": true, "with": true,
}

// tokenize lowercases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// BM25Rank scores texts against query with Okapi BM25 and returns the indices of the
// top k texts. Zero scores are ranked too so every text can surface; ties keep index order.
func BM25Rank(query string, texts []string, k int) []int {
	n := len(texts)
	if n == 0 {
		return nil
	}

	docs := make([][]string, n)
	totalLen := 0
	df := make(map[string]int)
	for i, t := range texts {
		docs[i] = tokenize(t)
		totalLen += len(docs[i])
		seen := make(map[string]bool, len(docs[i]))
		for _, term := range docs[i] {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	avgLen := float64(totalLen) / float64(n)
	if avgLen == 0 {
		avgLen = 1
	}

	terms := tokenize(query)
	scores := make([]float64, n)
	for i, doc := range docs {
		tf := make(map[string]int, len(doc))
		for _, term := range doc {
			tf[term]++
		}
		norm := bm25K1 * (1 - bm25B + bm25B*float64(len(doc))/avgLen)
		for _, term := range terms {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			d := float64(df[term])
			idf := math.Log((float64(n)-d+0.5)/(d+0.5) + 1)
			scores[i] += idf * f * (bm25K1 + 1) / (f + norm)
		}
	}

	return topK(scores, k)
}

// topK returns the indices of the k highest scores, ties broken by lower index.
func topK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k > 0 && k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
