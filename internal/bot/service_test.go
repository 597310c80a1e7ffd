package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soralab/line-assistant-bridge/internal/assistant"
	"github.com/soralab/line-assistant-bridge/internal/locale"
)

type fakeAssistant struct {
	reply      string
	err        error
	calls      int
	gotMessage string
}

func (f *fakeAssistant) Reply(_ context.Context, msg string) (string, error) {
	f.calls++
	f.gotMessage = msg
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type countingStore struct {
	*MemStore
	promptWrites  int
	historyWrites int
}

func (s *countingStore) SetPrompt(ctx context.Context, userID string, p Prompt) error {
	s.promptWrites++
	return s.MemStore.SetPrompt(ctx, userID, p)
}

func (s *countingStore) UpdateHistory(ctx context.Context, conversationID string, fn func(History) History) error {
	s.historyWrites++
	return s.MemStore.UpdateHistory(ctx, conversationID, fn)
}

func newTestService(store Store, ai assistant.Assistant) Service {
	return NewService(store, ai, NewActivations(), "Sora", "cheerful")
}

func textContext(text string) *Context {
	return &Context{
		TurnID:      "turn-1",
		UserID:      "U1",
		ID:          "C1",
		ReplyToken:  "rt-1",
		Event:       Event{Kind: EventText},
		RawText:     text,
		TrimmedText: text,
		Source:      Source{Kind: SourceUser},
		Commands:    map[Command]bool{},
	}
}

func TestHandleTurnNotHandledIsNoOp(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	ai := &fakeAssistant{reply: "hi there"}
	svc := newTestService(store, ai)

	c := textContext("hello")
	got := svc.HandleTurn(context.Background(), c)

	require.Same(t, c, got)
	require.Empty(t, got.Outbound)
	require.Zero(t, ai.calls)
	require.Zero(t, store.promptWrites)
	require.Zero(t, store.historyWrites)
}

func TestHandleTurnSuccessWithStickyActivation(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	ai := &fakeAssistant{reply: "hi there"}
	svc := newTestService(store, ai)

	c := textContext("hello")
	c.Source.Bot.IsActivated = true

	got := svc.HandleTurn(context.Background(), c)

	require.Len(t, got.Outbound, 1)
	require.Equal(t, "hi there", got.Outbound[0].Text)
	require.Equal(t, []Command{CommandContinue}, got.Outbound[0].QuickReplies)

	require.Equal(t, 1, store.promptWrites)
	require.Equal(t, 1, store.historyWrites)

	prompt, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, []PromptEntry{
		{Role: RoleHuman, Text: "(answer in a cheerful tone) hello"},
		{Role: RoleAssistant, Text: "hi there"},
	}, prompt.Entries)

	history := store.GetHistory("C1")
	require.Equal(t, []HistoryEntry{{Speaker: "Sora", Text: "hi there"}}, history.Entries)
}

func TestHandleTurnGrowsPromptByOnePair(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	seed := Prompt{}.AppendExchange("earlier question", "earlier answer")
	require.NoError(t, store.SetPrompt(context.Background(), "U1", seed))
	store.promptWrites = 0

	ai := &fakeAssistant{reply: "sure"}
	svc := newTestService(store, ai)

	c := textContext("and now?")
	c.Source.Bot.IsActivated = true
	svc.HandleTurn(context.Background(), c)

	prompt, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, prompt.Entries, 4)
	require.Equal(t, RoleHuman, prompt.Entries[2].Role)
	require.Equal(t, RoleAssistant, prompt.Entries[3].Role)
}

func TestHandleTurnAssistantErrorDegrades(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	ai := &fakeAssistant{err: assistant.ErrCreate}
	svc := newTestService(store, ai)

	c := textContext("hello")
	c.Source.Bot.IsActivated = true
	got := svc.HandleTurn(context.Background(), c)

	require.Len(t, got.Outbound, 1)
	require.Equal(t, locale.DegradedServiceText, got.Outbound[0].Text)
	require.Empty(t, got.Outbound[0].QuickReplies)
	require.Zero(t, store.promptWrites)
	require.Zero(t, store.historyWrites)
}

func TestHandleTurnTimeoutDegrades(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	ai := &fakeAssistant{err: assistant.ErrTimedOut}
	svc := newTestService(store, ai)

	c := textContext("hello")
	c.Commands[CommandTalk] = true
	got := svc.HandleTurn(context.Background(), c)

	require.Len(t, got.Outbound, 1)
	require.Equal(t, locale.DegradedServiceText, got.Outbound[0].Text)
	require.Zero(t, store.promptWrites)
	require.Zero(t, store.historyWrites)
}

func TestHandleTurnImageCaption(t *testing.T) {
	ai := &fakeAssistant{reply: "a cat indeed"}
	svc := newTestService(NewMemStore(), ai)

	c := textContext("cat?")
	c.Event = Event{Kind: EventImage, MessageID: "m1"}
	c.Source.Bot.IsActivated = true
	svc.HandleTurn(context.Background(), c)

	require.Equal(t, 1, ai.calls)
	require.Contains(t, ai.gotMessage, "image")
	require.Contains(t, ai.gotMessage, "cat?")
}

func TestHandleTurnImageWithoutCaption(t *testing.T) {
	ai := &fakeAssistant{reply: "nice picture"}
	svc := newTestService(NewMemStore(), ai)

	c := textContext("")
	c.Event = Event{Kind: EventImage, MessageID: "m1"}
	c.Source.Bot.IsActivated = true
	svc.HandleTurn(context.Background(), c)

	require.Contains(t, ai.gotMessage, "none")
}

func TestHandleTurnOtherEventProducesNoMessage(t *testing.T) {
	store := &countingStore{MemStore: NewMemStore()}
	ai := &fakeAssistant{reply: "unused"}
	svc := newTestService(store, ai)

	c := textContext("")
	c.Event = Event{Kind: EventOther}
	c.Source.Bot.IsActivated = true
	got := svc.HandleTurn(context.Background(), c)

	require.Empty(t, got.Outbound)
	require.Zero(t, ai.calls)
	require.Zero(t, store.promptWrites)
}

func TestHandleCommandsTalkActivates(t *testing.T) {
	acts := NewActivations()
	svc := NewService(NewMemStore(), &fakeAssistant{reply: "hi"}, acts, "Sora", "")

	c := textContext("/talk")
	c.Commands[CommandTalk] = true
	svc.HandleCommands(context.Background(), c)

	require.True(t, acts.IsActivated("C1"))
	require.True(t, c.Source.Bot.IsActivated)
}

func TestHandleCommandsForgetDeactivatesAndClearsPrompt(t *testing.T) {
	store := NewMemStore()
	seed := Prompt{}.AppendExchange("hello", "hi there")
	require.NoError(t, store.SetPrompt(context.Background(), "U1", seed))

	acts := NewActivations()
	acts.Activate("C1")
	ai := &fakeAssistant{reply: "unused"}
	svc := NewService(store, ai, acts, "Sora", "")

	c := textContext("/forget")
	c.Commands[CommandForget] = true
	c.Source.Bot.IsActivated = true

	svc.HandleCommands(context.Background(), c)
	got := svc.HandleTurn(context.Background(), c)

	require.False(t, acts.IsActivated("C1"))
	require.Zero(t, ai.calls)
	require.Len(t, got.Outbound, 1)
	require.Equal(t, locale.ForgetText, got.Outbound[0].Text)

	prompt, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Empty(t, prompt.Entries)
}

func TestHandleTurnBotNameMention(t *testing.T) {
	ai := &fakeAssistant{reply: "you called?"}
	svc := newTestService(NewMemStore(), ai)

	c := textContext("hey Sora, you there?")
	got := svc.HandleTurn(context.Background(), c)

	require.Equal(t, 1, ai.calls)
	require.Len(t, got.Outbound, 1)
	require.Equal(t, "you called?", got.Outbound[0].Text)
}
