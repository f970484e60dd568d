package usecase

import (
	"regexp"
	"strings"

	"health-rag/internal/domain"
)

var (
	preamblePattern = regexp.MustCompile(`(?i)^(?:based on|according to) (?:the )?(?:provided |given |supplied )?(?:context|information|documents?)[^,:.\n]*[,:.]?\s*`)
	// A model-written disclaimer block, optionally introduced by a rule or a heading.
	disclaimerPattern = regexp.MustCompile(`(?is)(?:\n\s*(?:-{3,}|\*{3,}|_{3,})\s*)?(?:\n\s*\**\s*(?:mandatory )?(?:medical )?disclaimer\s*:?\**\s*)?\n?\s*I(?:'m| am) an AI (?:assistant|model|language model),? (?:and )?not a (?:medical professional|doctor|physician).*$`)
	trailingRule      = regexp.MustCompile(`(?:\n\s*(?:-{3,}|\*{3,}|_{3,})\s*)+$`)
)

// OutputValidator normalizes the model output into the final answer text.
type OutputValidator struct{}

// NewOutputValidator creates a validator instance (currently stateless).
func NewOutputValidator() OutputValidator {
	return OutputValidator{}
}

// Finalize strips a "based on the context" preamble and any disclaimer or trailing rule the
// model wrote, then appends the canonical separator and disclaimer. ok is false when no
// answer text remains.
func (v OutputValidator) Finalize(raw string) (answer string, ok bool) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", false
	}

	body = strings.TrimSpace(disclaimerPattern.ReplaceAllString(body, ""))
	body = strings.TrimSpace(trailingRule.ReplaceAllString(body, ""))
	stripped := strings.TrimSpace(preamblePattern.ReplaceAllString(body, ""))
	if stripped == "" {
		return "", false
	}
	hadPreamble := stripped != body
	body = stripped

	// Only the sentence start exposed by a removed preamble is capitalized.
	if r := []rune(body); hadPreamble && r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
		body = string(r)
	}

	return domain.WithDisclaimer(body), true
}
