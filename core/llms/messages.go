package llms

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is one completed exchange: what the user said and what the
// assistant answered. Turns accumulate into the prior context handed to
// the completion backend.
type Turn struct {
	ID            string
	UserText      string
	AssistantText string
	StartedAt     time.Time
	EndedAt       time.Time
}

// Messages flattens turns into alternating user/assistant messages.
func Messages(turns []Turn) []Message {
	messages := make([]Message, 0, len(turns)*2)
	for _, turn := range turns {
		if turn.UserText != "" {
			messages = append(messages, Message{Role: RoleUser, Content: turn.UserText})
		}
		if turn.AssistantText != "" {
			messages = append(messages, Message{Role: RoleAssistant, Content: turn.AssistantText})
		}
	}
	return messages
}
