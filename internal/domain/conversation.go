package domain

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	userPrefix      = "User: "
	assistantPrefix = "Assistant: "

	// EmptyHistoryPlaceholder is rendered by Formatted when no turns exist.
	EmptyHistoryPlaceholder = "No previous conversation history."
)

// ConversationTurn is one message of a conversation.
type ConversationTurn struct {
	Role Role
	Text string
}

// Message is a role-tagged chat message handed to a language model.
type Message struct {
	Role    Role
	Content string
}

// ConversationHistory holds the alternating user/assistant turns of one conversation.
// The caller owns persistence; the pipeline only reads it and appends one pair per request.
type ConversationHistory struct {
	turns []ConversationTurn
}

// LoadHistory builds a history from the raw wire form. Even positions are user turns,
// odd positions assistant turns. A matching "User: " / "Assistant: " prefix is stripped.
func LoadHistory(raw []string) *ConversationHistory {
	h := &ConversationHistory{turns: make([]ConversationTurn, 0, len(raw))}
	for i, entry := range raw {
		role, prefix := RoleUser, userPrefix
		if i%2 == 1 {
			role, prefix = RoleAssistant, assistantPrefix
		}
		h.turns = append(h.turns, ConversationTurn{
			Role: role,
			Text: strings.TrimPrefix(entry, prefix),
		})
	}
	return h
}

// Append adds exactly one user turn followed by one assistant turn.
func (h *ConversationHistory) Append(userText, assistantText string) {
	h.turns = append(h.turns,
		ConversationTurn{Role: RoleUser, Text: userText},
		ConversationTurn{Role: RoleAssistant, Text: assistantText},
	)
}

// Len returns the number of stored turns.
func (h *ConversationHistory) Len() int {
	return len(h.turns)
}

// IsEmpty reports whether the history has no turns.
func (h *ConversationHistory) IsEmpty() bool {
	return len(h.turns) == 0
}

// Turns returns a copy of the stored turns.
func (h *ConversationHistory) Turns() []ConversationTurn {
	out := make([]ConversationTurn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Formatted renders every turn on its own line, or the placeholder when empty.
func (h *ConversationHistory) Formatted() string {
	if h.IsEmpty() {
		return EmptyHistoryPlaceholder
	}
	return strings.Join(h.Raw(), "\n")
}

// Structured returns role-tagged messages built pair by pair.
// A trailing user turn without an answer is skipped.
func (h *ConversationHistory) Structured() []Message {
	pairs := len(h.turns) / 2
	msgs := make([]Message, 0, pairs*2)
	for i := 0; i+1 < len(h.turns); i += 2 {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: h.turns[i].Text},
			Message{Role: RoleAssistant, Content: h.turns[i+1].Text},
		)
	}
	return msgs
}

// Raw returns the wire form the caller persists.
func (h *ConversationHistory) Raw() []string {
	out := make([]string, 0, len(h.turns))
	for _, t := range h.turns {
		if t.Role == RoleAssistant {
			out = append(out, assistantPrefix+t.Text)
			continue
		}
		out = append(out, userPrefix+t.Text)
	}
	return out
}
