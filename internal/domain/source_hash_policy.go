package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceHashPolicy computes a stable hash for a piece of document text.
// Same title and body after trimming always give the same hash.
type SourceHashPolicy interface {
	Compute(title, body string) string
}

type sourceHashPolicy struct{}

// NewSourceHashPolicy returns the SHA-256 policy.
func NewSourceHashPolicy() SourceHashPolicy {
	return &sourceHashPolicy{}
}

// Compute hashes title and body joined by a NUL byte so "A"+"B" and "AB"+"" differ.
func (p *sourceHashPolicy) Compute(title, body string) string {
	content := strings.TrimSpace(title) + "\x00" + strings.TrimSpace(body)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
