package llm

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role" jsonschema:"enum=system,enum=user,enum=assistant"`
	Content string `json:"content" jsonschema:"description=Text of the turn"`
}

// Mistral instruction markers.
const (
	InstOpen  = "<s>[INST]"
	InstClose = "[/INST]"
)

// FormatConversation renders a system prompt and turns in the Mistral
// instruction format. Each user turn closes an instruction block and each
// assistant turn reopens one; the result ends with a single space so the
// model continues from the open assistant slot. Unknown roles are skipped and
// turn alternation is not checked.
func FormatConversation(systemPrompt string, turns []Message) string {
	var b strings.Builder
	b.WriteString(InstOpen + " " + systemPrompt + " " + InstClose)

	for _, turn := range turns {
		switch turn.Role {
		case RoleSystem:
			b.WriteString(InstOpen + " " + turn.Content + " " + InstClose)
		case RoleUser:
			b.WriteString(" " + turn.Content + " " + InstClose)
		case RoleAssistant:
			b.WriteString(" " + turn.Content + " " + InstOpen)
		}
	}

	b.WriteString(" ")
	return b.String()
}

// LastUserContent returns the content of the final user turn, or "".
func LastUserContent(turns []Message) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
