package bot

import (
	"context"
	"log"
	"sync"

	"github.com/soralab/line-assistant-bridge/internal/assistant"
	"github.com/soralab/line-assistant-bridge/internal/locale"
)

type service struct {
	store Store
	ai    assistant.Assistant
	acts  *Activations

	botName string
	botTone string

	usersMu sync.Mutex
	users   map[string]*sync.Mutex
}

func NewService(store Store, ai assistant.Assistant, acts *Activations, botName, botTone string) Service {
	return &service{
		store:   store,
		ai:      ai,
		acts:    acts,
		botName: botName,
		botTone: botTone,
		users:   make(map[string]*sync.Mutex),
	}
}

// HandleCommands applies the activation lifecycle ahead of the turn itself:
// talk switches the conversation into assistant mode, forget switches it off
// and clears the stored prompt.
func (s *service) HandleCommands(ctx context.Context, c *Context) {
	if c.HasCommand(CommandForget) {
		s.acts.Deactivate(c.ID)
		c.Source.Bot.IsActivated = false
		if err := s.store.SetPrompt(ctx, c.UserID, Prompt{}); err != nil {
			log.Printf("[bot] turn=%s prompt clear failed: %v", c.TurnID, err)
		}
		c.PushText(locale.ForgetText)
		return
	}
	if c.HasCommand(CommandTalk) {
		s.acts.Activate(c.ID)
		c.Source.Bot.IsActivated = true
	}
}

// HandleTurn runs one assistant turn. Failures from the remote run never
// escape: the user gets the fixed degraded text and the store stays
// untouched. A turn that is not ours returns the context as-is.
func (s *service) HandleTurn(ctx context.Context, c *Context) *Context {
	if c.HasCommand(CommandForget) {
		return c
	}
	if !ShouldHandle(c, s.botName) {
		return c
	}

	userMessage, ok := extractUserMessage(c)
	if !ok {
		return c
	}

	log.Printf("[bot] turn=%s user=%s conversation=%s handling %s event", c.TurnID, c.UserID, c.ID, c.Event.Kind)

	// Turns for the same user are serialized so two overlapping turns
	// can't race the prompt read-modify-write.
	unlock := s.lockUser(c.UserID)
	defer unlock()

	prompt, err := s.store.GetPrompt(ctx, c.UserID)
	if err != nil {
		log.Printf("[bot] turn=%s prompt load failed, starting empty: %v", c.TurnID, err)
		prompt = Prompt{}
	}

	reply, err := s.ai.Reply(ctx, userMessage)
	if err != nil {
		log.Printf("[bot] turn=%s assistant error: %v", c.TurnID, err)
		c.PushText(locale.DegradedServiceText)
		return c
	}

	toned := locale.T(locale.KeyDefaultAITone)(s.botTone) + userMessage
	prompt = prompt.AppendExchange(toned, reply)
	if err := s.store.SetPrompt(ctx, c.UserID, prompt); err != nil {
		log.Printf("[bot] turn=%s prompt write failed: %v", c.TurnID, err)
	}
	if err := s.store.UpdateHistory(ctx, c.ID, func(h History) History {
		return h.Write(s.botName, reply)
	}); err != nil {
		log.Printf("[bot] turn=%s history write failed: %v", c.TurnID, err)
	}

	c.PushText(reply, CommandContinue)
	return c
}

// extractUserMessage turns the event into the text handed to the assistant.
// Image events become a textual description carrying the caption; event
// kinds this core doesn't speak for produce no message at all.
func extractUserMessage(c *Context) (string, bool) {
	switch c.Event.Kind {
	case EventText:
		return c.TrimmedText, true
	case EventImage:
		caption := c.TrimmedText
		if caption == "" {
			caption = "none"
		}
		return "(the user sent an image, caption: " + caption + ")", true
	default:
		return "", false
	}
}

func (s *service) lockUser(userID string) func() {
	s.usersMu.Lock()
	mu, ok := s.users[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.users[userID] = mu
	}
	s.usersMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
