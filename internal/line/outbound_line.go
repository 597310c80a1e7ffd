package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/soralab/line-assistant-bridge/internal/bot"
	"github.com/soralab/line-assistant-bridge/internal/locale"
)

// The platform rejects replies carrying more than five messages.
const maxMessagesPerReply = 5

type LineOutbound struct {
	baseURL string
	token   string // channel access token
	client  *http.Client
}

func NewLineOutbound() *LineOutbound {
	token := strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"))
	if token == "" {
		panic("LINE_CHANNEL_ACCESS_TOKEN not set")
	}

	return &LineOutbound{
		baseURL: "https://api.line.me",
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type textMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string           `json:"type"`
	Action quickReplyAction `json:"action"`
}

type quickReplyAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

func (c *LineOutbound) Reply(ctx context.Context, replyToken string, actions []bot.Action) error {
	return c.send(ctx, "/v2/bot/message/reply", map[string]any{
		"replyToken": replyToken,
		"messages":   renderMessages(actions),
	})
}

func (c *LineOutbound) Push(ctx context.Context, to string, actions []bot.Action) error {
	return c.send(ctx, "/v2/bot/message/push", map[string]any{
		"to":       to,
		"messages": renderMessages(actions),
	})
}

func (c *LineOutbound) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := c.get(ctx, "/v2/bot/profile/"+userID, &p)
	return p, err
}

func (c *LineOutbound) FetchGroupSummary(ctx context.Context, groupID string) (GroupSummary, error) {
	var g GroupSummary
	err := c.get(ctx, "/v2/bot/group/"+groupID+"/summary", &g)
	return g, err
}

func renderMessages(actions []bot.Action) []textMessage {
	if len(actions) > maxMessagesPerReply {
		actions = actions[:maxMessagesPerReply]
	}

	messages := make([]textMessage, 0, len(actions))
	for _, a := range actions {
		msg := textMessage{Type: "text", Text: a.Text}
		if len(a.QuickReplies) > 0 {
			items := make([]quickReplyItem, 0, len(a.QuickReplies))
			for _, cmd := range a.QuickReplies {
				items = append(items, quickReplyItem{Type: "action", Action: renderQuickReply(cmd)})
			}
			msg.QuickReply = &quickReply{Items: items}
		}
		messages = append(messages, msg)
	}
	return messages
}

// renderQuickReply maps a command to the message its quick-reply button
// sends. Continue taps back into talk so sticky activation keeps the
// conversation going.
func renderQuickReply(cmd bot.Command) quickReplyAction {
	switch cmd {
	case bot.CommandContinue:
		return quickReplyAction{Type: "message", Label: locale.ContinueLabel, Text: "/talk"}
	case bot.CommandForget:
		return quickReplyAction{Type: "message", Label: "/forget", Text: "/forget"}
	default:
		return quickReplyAction{Type: "message", Label: "/talk", Text: "/talk"}
	}
}

func (c *LineOutbound) send(ctx context.Context, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.New(
			"line api error: " +
				resp.Status +
				" body=" + string(respBody),
		)
	}

	return nil
}

func (c *LineOutbound) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.New(
			"line api error: " +
				resp.Status +
				" body=" + string(respBody),
		)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
