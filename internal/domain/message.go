package domain

// ChatRole is the closed set of conversation roles the boundary accepts.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatMessage is one validated turn of conversation history.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ParseChatRole validates a raw role string against the closed variant.
func ParseChatRole(raw string) (ChatRole, error) {
	switch ChatRole(raw) {
	case ChatRoleUser, ChatRoleAssistant, ChatRoleSystem:
		return ChatRole(raw), nil
	}
	return "", ErrInvalidChatRole
}

// NewChatMessage constructs a validated ChatMessage from untrusted input.
func NewChatMessage(role, content string) (ChatMessage, error) {
	r, err := ParseChatRole(role)
	if err != nil {
		return ChatMessage{}, err
	}
	if content == "" {
		return ChatMessage{}, ErrMissingRequiredField
	}
	return ChatMessage{Role: r, Content: content}, nil
}

// SanitizeHistory keeps the validatable subset of an untrusted history
// slice: entries with unknown roles or empty content are dropped rather
// than trusted.
func SanitizeHistory(raw []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(raw))
	for _, m := range raw {
		msg, err := NewChatMessage(string(m.Role), m.Content)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}
