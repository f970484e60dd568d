package usecase

import (
	"fmt"
	"strings"

	"health-rag/internal/domain"
)

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Question string
	History  *domain.ConversationHistory
	Context  domain.RankedContext
}

// PromptBuilder builds the chat messages sent to the LLM.
type PromptBuilder interface {
	Build(input PromptInput) ([]domain.Message, error)
}

var answerTemplate = domain.MustPromptTemplate("answer", `<context>
{{.context}}
</context>

{{.history_note}}

Question: {{.question}}`, "context", "question", "history_note")

const (
	followUpNote = "This question continues the conversation above. Resolve references such as \"it\" or \"what else could it be\" against the symptoms and topic the user described first, not only the latest message."
	freshNote    = "This is the first question of the conversation."
)

// AnswerPromptBuilder creates the system persona, replays prior turns as role messages
// and renders the context and question into the final user message.
type AnswerPromptBuilder struct {
	additionalInstructions []string
}

// NewAnswerPromptBuilder creates a prompt builder with optional extra rules appended.
func NewAnswerPromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &AnswerPromptBuilder{
		additionalInstructions: additionalInstructions,
	}
}

// Build renders the Messages for Chat API.
func (b *AnswerPromptBuilder) Build(input PromptInput) ([]domain.Message, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	var sys strings.Builder
	sys.WriteString("You are Vytal, an expert AI health educator. Your persona is professional, empathetic, and clear.\n\n")
	sys.WriteString("Answer the user's health question using ONLY the documents inside <context>.\n\n")
	sys.WriteString("RULES:\n")

	rules := []string{
		"Start directly with the answer. Never open with phrases like \"Based on the context\" or \"According to the provided information\".",
		"Organize the answer with markdown headings (### Heading) and bullet points. A good answer explains what the condition is, lists its main symptoms and says when to seek medical attention.",
		"Use only facts from <context>. If the context does not answer the question, say so plainly instead of guessing.",
		"When there is earlier conversation, interpret follow-up questions against the original symptoms or topic the user described, not only the most recent message.",
		"End EVERY response with the mandatory medical disclaimer below, separated from the answer by a horizontal line (---).",
	}
	rules = append(rules, b.additionalInstructions...)
	for i, rule := range rules {
		fmt.Fprintf(&sys, "%d. %s\n", i+1, rule)
	}

	sys.WriteString("\nMANDATORY DISCLAIMER:\n")
	sys.WriteString(domain.Disclaimer)

	historyNote := freshNote
	var prior []domain.Message
	if input.History != nil && !input.History.IsEmpty() {
		historyNote = followUpNote
		prior = input.History.Structured()
	}

	user, err := answerTemplate.Render(map[string]string{
		"context":      input.Context.Render(),
		"question":     strings.TrimSpace(input.Question),
		"history_note": historyNote,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", answerTemplate.Name(), err)
	}

	messages := make([]domain.Message, 0, len(prior)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: sys.String()})
	messages = append(messages, prior...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: user})
	return messages, nil
}
