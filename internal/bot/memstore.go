package bot

import (
	"context"
	"sync"
)

// MemStore is a concurrency-safe in-memory Store. It backs the bridge when
// no DATABASE_URL is configured and doubles as the test store. Per-key
// get/set is atomic; nothing serializes whole turns (the service does that).
type MemStore struct {
	mu      sync.RWMutex
	prompts map[string]Prompt
	history map[string]History
}

func NewMemStore() *MemStore {
	return &MemStore{
		prompts: make(map[string]Prompt),
		history: make(map[string]History),
	}
}

func (s *MemStore) GetPrompt(_ context.Context, userID string) (Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPrompt(s.prompts[userID]), nil
}

func (s *MemStore) SetPrompt(_ context.Context, userID string, p Prompt) error {
	s.mu.Lock()
	s.prompts[userID] = copyPrompt(p)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) UpdateHistory(_ context.Context, conversationID string, fn func(History) History) error {
	s.mu.Lock()
	s.history[conversationID] = fn(s.history[conversationID])
	s.mu.Unlock()
	return nil
}

// GetHistory is test/inspection support; the core never reads history
// mid-turn.
func (s *MemStore) GetHistory(conversationID string) History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history[conversationID]
}

func copyPrompt(p Prompt) Prompt {
	if len(p.Entries) == 0 {
		return Prompt{}
	}
	entries := make([]PromptEntry, len(p.Entries))
	copy(entries, p.Entries)
	return Prompt{Entries: entries}
}
