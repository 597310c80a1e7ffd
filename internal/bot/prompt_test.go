package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendExchangeAddsOnePair(t *testing.T) {
	p := Prompt{}.AppendExchange("hello", "hi there")

	require.Equal(t, []PromptEntry{
		{Role: RoleHuman, Text: "hello"},
		{Role: RoleAssistant, Text: "hi there"},
	}, p.Entries)

	p = p.AppendExchange("again", "sure")
	require.Len(t, p.Entries, 4)
}

func TestAppendExchangeDoesNotAliasReceiver(t *testing.T) {
	base := Prompt{}.AppendExchange("a", "b")
	grown := base.AppendExchange("c", "d")

	require.Len(t, base.Entries, 2)
	require.Len(t, grown.Entries, 4)
	require.Equal(t, "a", base.Entries[0].Text)
}

func TestHistoryWriteAppends(t *testing.T) {
	h := History{}.Write("Sora", "hi there").Write("Sora", "still here")

	require.Equal(t, []HistoryEntry{
		{Speaker: "Sora", Text: "hi there"},
		{Speaker: "Sora", Text: "still here"},
	}, h.Entries)
}

func TestHistoryWriteDoesNotAliasReceiver(t *testing.T) {
	base := History{}.Write("Sora", "one")
	grown := base.Write("Sora", "two")

	require.Len(t, base.Entries, 1)
	require.Len(t, grown.Entries, 2)
}
