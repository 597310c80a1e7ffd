package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreUnseenUserGetsEmptyPrompt(t *testing.T) {
	store := NewMemStore()

	p, err := store.GetPrompt(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, p.Entries)
}

func TestMemStoreGetIsIdempotent(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.SetPrompt(context.Background(), "U1", Prompt{}.AppendExchange("q", "a")))

	first, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	second, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMemStoreGetReturnsCopy(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.SetPrompt(context.Background(), "U1", Prompt{}.AppendExchange("q", "a")))

	p, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	p.Entries[0].Text = "mutated"

	again, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, "q", again.Entries[0].Text)
}

func TestMemStoreLastWriteWins(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.SetPrompt(context.Background(), "U1", Prompt{}.AppendExchange("first", "1")))
	require.NoError(t, store.SetPrompt(context.Background(), "U1", Prompt{}.AppendExchange("second", "2")))

	p, err := store.GetPrompt(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, "second", p.Entries[0].Text)
}

func TestMemStoreUpdateHistoryAppliesTransform(t *testing.T) {
	store := NewMemStore()

	err := store.UpdateHistory(context.Background(), "C1", func(h History) History {
		return h.Write("Sora", "hi there")
	})
	require.NoError(t, err)

	err = store.UpdateHistory(context.Background(), "C1", func(h History) History {
		return h.Write("Sora", "again")
	})
	require.NoError(t, err)

	got := store.GetHistory("C1")
	require.Len(t, got.Entries, 2)
	require.Equal(t, "hi there", got.Entries[0].Text)
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	store := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("U%d", i%4)
			_ = store.SetPrompt(context.Background(), user, Prompt{}.AppendExchange("q", "a"))
			_, _ = store.GetPrompt(context.Background(), user)
			_ = store.UpdateHistory(context.Background(), user, func(h History) History {
				return h.Write("Sora", "x")
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		got := store.GetHistory(fmt.Sprintf("U%d", i))
		require.Len(t, got.Entries, 4)
	}
}
