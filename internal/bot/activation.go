package bot

import "sync"

// Activations tracks the per-conversation sticky assistant-mode flag. The
// webhook layer reads it when normalizing an event into a Context; the talk
// and forget commands flip it.
type Activations struct {
	mu    sync.RWMutex
	state map[string]bool
}

func NewActivations() *Activations {
	return &Activations{state: make(map[string]bool)}
}

func (a *Activations) Activate(conversationID string) {
	a.mu.Lock()
	a.state[conversationID] = true
	a.mu.Unlock()
}

func (a *Activations) Deactivate(conversationID string) {
	a.mu.Lock()
	delete(a.state, conversationID)
	a.mu.Unlock()
}

func (a *Activations) IsActivated(conversationID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state[conversationID]
}
