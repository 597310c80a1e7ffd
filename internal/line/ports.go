package line

import (
	"context"

	"github.com/soralab/line-assistant-bridge/internal/bot"
)

// Webhook payload shapes — the minimum slice of the platform schema the
// bridge reads.
type webhookPayload struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string        `json:"type"`
	ReplyToken string        `json:"replyToken"`
	Source     eventSource   `json:"source"`
	Message    *eventMessage `json:"message,omitempty"`
	Postback   *postbackData `json:"postback,omitempty"`
}

type eventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

type eventMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

type postbackData struct {
	Data string `json:"data"`
}

type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type GroupSummary struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

type Outbound interface {
	Reply(ctx context.Context, replyToken string, actions []bot.Action) error
	Push(ctx context.Context, to string, actions []bot.Action) error
	FetchProfile(ctx context.Context, userID string) (Profile, error)
	FetchGroupSummary(ctx context.Context, groupID string) (GroupSummary, error)
}

// Chat commands as the user types (or taps) them.
var commandByText = map[string]bot.Command{
	"/talk":   bot.CommandTalk,
	"/forget": bot.CommandForget,
}
