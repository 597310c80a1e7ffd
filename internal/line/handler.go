package line

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/soralab/line-assistant-bridge/internal/bot"
)

type Handler struct {
	svc      bot.Service
	outbound Outbound
	acts     *bot.Activations
}

func NewHandler(svc bot.Service, outbound Outbound, acts *bot.Activations) *Handler {
	return &Handler{svc: svc, outbound: outbound, acts: acts}
}

// HandleWebhook — inbound events from the platform. Each event becomes one
// turn; the platform always gets a 200 back, delivery problems are only
// logged (a retry storm from the platform helps nobody).
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	for _, ev := range payload.Events {
		c := h.normalize(ctx, ev)
		if c == nil {
			continue
		}

		h.svc.HandleCommands(ctx, c)
		c = h.svc.HandleTurn(ctx, c)

		if len(c.Outbound) == 0 {
			continue
		}
		h.deliver(ctx, c)
	}

	w.WriteHeader(http.StatusOK)
}

// normalize maps one webhook event onto a turn-scoped Context. Events the
// bridge has no business with (joins, unfollows, sourceless events) yield
// nil and are skipped.
func (h *Handler) normalize(ctx context.Context, ev webhookEvent) *bot.Context {
	if ev.Source.UserID == "" {
		return nil
	}

	c := &bot.Context{
		TurnID:     uuid.NewString(),
		UserID:     ev.Source.UserID,
		ReplyToken: ev.ReplyToken,
		Commands:   map[bot.Command]bool{},
	}

	switch ev.Source.Type {
	case "group":
		c.ID = ev.Source.GroupID
		c.Source = bot.Source{Kind: bot.SourceGroup, DisplayName: h.groupName(ctx, ev.Source.GroupID)}
	default:
		c.ID = ev.Source.UserID
		c.Source = bot.Source{Kind: bot.SourceUser, DisplayName: h.userName(ctx, ev.Source.UserID)}
	}
	if c.ID == "" {
		return nil
	}
	c.Source.Bot.IsActivated = h.acts.IsActivated(c.ID)

	switch ev.Type {
	case "message":
		if ev.Message == nil {
			return nil
		}
		c.Event = bot.Event{Kind: messageKind(ev.Message.Type), MessageID: ev.Message.ID}
		c.RawText = ev.Message.Text
		c.TrimmedText = strings.TrimSpace(ev.Message.Text)
		detectTextCommand(c)
	case "postback":
		if ev.Postback == nil {
			return nil
		}
		c.Event = bot.Event{Kind: bot.EventOther}
		if cmd, ok := commandByText[strings.TrimSpace(ev.Postback.Data)]; ok {
			c.Commands[cmd] = true
		}
	default:
		return nil
	}

	return c
}

func messageKind(messageType string) bot.EventKind {
	switch messageType {
	case "text":
		return bot.EventText
	case "image":
		return bot.EventImage
	default:
		return bot.EventOther
	}
}

// detectTextCommand recognizes a leading command token and strips it from
// the trimmed text, so "/talk how are you" reaches the assistant as
// "how are you".
func detectTextCommand(c *bot.Context) {
	for text, cmd := range commandByText {
		if c.TrimmedText == text {
			c.Commands[cmd] = true
			c.TrimmedText = ""
			return
		}
		if strings.HasPrefix(c.TrimmedText, text+" ") {
			c.Commands[cmd] = true
			c.TrimmedText = strings.TrimSpace(strings.TrimPrefix(c.TrimmedText, text))
			return
		}
	}
}

func (h *Handler) userName(ctx context.Context, userID string) string {
	profile, err := h.outbound.FetchProfile(ctx, userID)
	if err != nil {
		log.Printf("[line] profile fetch failed for %s: %v", userID, err)
		return ""
	}
	return profile.DisplayName
}

func (h *Handler) groupName(ctx context.Context, groupID string) string {
	summary, err := h.outbound.FetchGroupSummary(ctx, groupID)
	if err != nil {
		log.Printf("[line] group summary fetch failed for %s: %v", groupID, err)
		return ""
	}
	return summary.GroupName
}

func (h *Handler) deliver(ctx context.Context, c *bot.Context) {
	var err error
	if c.ReplyToken != "" {
		err = h.outbound.Reply(ctx, c.ReplyToken, c.Outbound)
	} else {
		err = h.outbound.Push(ctx, c.ID, c.Outbound)
	}
	if err != nil {
		log.Printf("[line] turn=%s delivery failed: %v", c.TurnID, err)
	}
}
