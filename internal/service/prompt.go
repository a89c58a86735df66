package service

import (
	"fmt"

	"github.com/portola-retreat/concierge/internal/domain"
)

// systemPrompt is the concierge persona sent with every generative call.
const systemPrompt = `You are Portola — a warm, confident event concierge for the Portola Retreat.
Answer conversationally and helpfully. Use the provided Context when relevant.
If you don't know, say so briefly and point to Agenda/Map/Info Desk.
Tone: professional yet relaxed, like a 5-star resort host.`

// BuildMessages assembles the full conversation for the completion
// service: persona, context block, validated history, then the current
// query.
func BuildMessages(contextBlock string, history []domain.ChatMessage, query string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+3)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: systemPrompt})
	messages = append(messages, domain.ChatMessage{
		Role:    domain.ChatRoleUser,
		Content: fmt.Sprintf("Context:\n%s\n\nContinue the chat naturally.", contextBlock),
	})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: query})
	return messages
}
