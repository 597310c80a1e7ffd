package bot

import "context"

type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
	EventOther EventKind = "other"
)

// Event is the inbound payload of one webhook event, already classified.
// For image events Text carries the caption, which may be empty.
type Event struct {
	Kind      EventKind
	MessageID string
}

type SourceKind string

const (
	SourceUser  SourceKind = "user"
	SourceGroup SourceKind = "group"
)

// BotState is the per-conversation record behind sticky activation.
type BotState struct {
	IsActivated bool
}

type Source struct {
	Kind        SourceKind
	DisplayName string
	Bot         BotState
}

type Command string

const (
	CommandTalk     Command = "talk"
	CommandForget   Command = "forget"
	CommandContinue Command = "continue"
)

// Action is one pending outbound message queued on a Context.
type Action struct {
	Text         string
	QuickReplies []Command
}

// Context is one normalized inbound event plus the replies queued for it.
// It lives for exactly one turn; the orchestrator only ever appends
// outbound actions to it.
type Context struct {
	TurnID      string
	UserID      string
	ID          string // conversation id: group id for group chats, user id otherwise
	ReplyToken  string
	Event       Event
	RawText     string
	TrimmedText string
	Source      Source
	Commands    map[Command]bool

	Outbound []Action
}

func (c *Context) HasCommand(cmd Command) bool {
	return c.Commands[cmd]
}

// PushText queues an outbound text message, optionally with quick-reply
// commands for the user's next move.
func (c *Context) PushText(text string, quickReplies ...Command) {
	c.Outbound = append(c.Outbound, Action{Text: text, QuickReplies: quickReplies})
}

// Store — persistence for per-user prompts and per-conversation history.
type Store interface {
	GetPrompt(ctx context.Context, userID string) (Prompt, error)
	SetPrompt(ctx context.Context, userID string, p Prompt) error
	UpdateHistory(ctx context.Context, conversationID string, fn func(History) History) error
}

// Service — turn orchestration.
type Service interface {
	HandleCommands(ctx context.Context, c *Context)
	HandleTurn(ctx context.Context, c *Context) *Context
}
