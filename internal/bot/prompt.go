package bot

// Role tags mirror the remote service's message roles.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "user"
	RoleAssistant Role = "assistant"
)

type PromptEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Prompt is the per-user message buffer fed to the assistant, distinct from
// History (the durable transcript). A successful turn grows it by exactly
// one human+assistant pair.
type Prompt struct {
	Entries []PromptEntry `json:"entries"`
}

// AppendExchange returns a Prompt with the human message and assistant reply
// appended as one pair. There is deliberately no single-entry append: a
// failed turn must not leave a dangling human entry behind.
func (p Prompt) AppendExchange(human, assistant string) Prompt {
	entries := make([]PromptEntry, 0, len(p.Entries)+2)
	entries = append(entries, p.Entries...)
	entries = append(entries,
		PromptEntry{Role: RoleHuman, Text: human},
		PromptEntry{Role: RoleAssistant, Text: assistant},
	)
	return Prompt{Entries: entries}
}

type HistoryEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// History is the append-only transcript of one conversation.
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// Write returns a History with one more labeled line appended.
func (h History) Write(speaker, text string) History {
	entries := make([]HistoryEntry, 0, len(h.Entries)+1)
	entries = append(entries, h.Entries...)
	entries = append(entries, HistoryEntry{Speaker: speaker, Text: text})
	return History{Entries: entries}
}
