package assistant

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// threadRunAPI is the slice of the OpenAI client the run lifecycle touches.
type threadRunAPI interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

type OpenAIClient struct {
	api          threadRunAPI
	assistantID  string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewOpenAIClient() *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	assistantID := os.Getenv("OPENAI_ASSISTANT_ID")
	if assistantID == "" {
		log.Fatal("OPENAI_ASSISTANT_ID not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		cfg.BaseURL = base
	}

	return &OpenAIClient{
		api:          openai.NewClientWithConfig(cfg),
		assistantID:  assistantID,
		pollInterval: envDuration("ASSISTANT_POLL_INTERVAL", time.Second),
		pollTimeout:  envDuration("ASSISTANT_POLL_TIMEOUT", time.Minute),
	}
}

// Reply drives one remote run start to finish: seed a thread with the user
// message, start a run, poll it to a terminal state, pull the reply text.
func (c *OpenAIClient) Reply(ctx context.Context, userMessage string) (string, error) {
	run, err := c.create(ctx, userMessage)
	if err != nil {
		return "", err
	}

	run, err = c.poll(ctx, run)
	if err != nil {
		return "", err
	}

	text, err := c.fetchResult(ctx, run)
	if err != nil {
		return "", err
	}
	run.ResultText = text

	log.Printf("[assistant] thread=%s run=%s completed, reply %d chars", run.ThreadID, run.RunID, len(text))
	return run.ResultText, nil
}

func (c *OpenAIClient) create(ctx context.Context, userMessage string) (RemoteRun, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{
			{Role: openai.ThreadMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return RemoteRun{}, fmt.Errorf("%w: thread: %v", ErrCreate, err)
	}

	run, err := c.api.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return RemoteRun{}, fmt.Errorf("%w: run: %v", ErrCreate, err)
	}

	return RemoteRun{ThreadID: thread.ID, RunID: run.ID, State: RunStateInProgress}, nil
}

// poll waits out the run with a fixed interval between status queries.
// The loop is bounded by a wall-clock deadline; a run that never settles
// ends up timed_out instead of hanging the turn forever. Transient status
// query errors are retried until the same deadline.
func (c *OpenAIClient) poll(ctx context.Context, run RemoteRun) (RemoteRun, error) {
	deadline := time.Now().Add(c.pollTimeout)
	var lastErr error

	for {
		if !time.Now().Before(deadline) {
			run.State = RunStateTimedOut
			if lastErr != nil {
				return run, fmt.Errorf("%w (last error: %v)", ErrTimedOut, lastErr)
			}
			return run, ErrTimedOut
		}

		select {
		case <-ctx.Done():
			run.State = RunStateTimedOut
			return run, fmt.Errorf("%w: %v", ErrTimedOut, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		remote, err := c.api.RetrieveRun(ctx, run.ThreadID, run.RunID)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrStatus, err)
			log.Printf("[assistant] run=%s status query failed: %v", run.RunID, err)
			continue
		}
		lastErr = nil

		switch remote.Status {
		case openai.RunStatusCompleted:
			run.State = RunStateCompleted
			return run, nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired,
			openai.RunStatusIncomplete, openai.RunStatusRequiresAction:
			// requires_action counts as failed: this bridge never submits
			// tool outputs, so such a run can only expire.
			run.State = RunStateFailed
			return run, fmt.Errorf("%w: status=%s", ErrRunFailed, remote.Status)
		}
	}
}

func (c *OpenAIClient) fetchResult(ctx context.Context, run RemoteRun) (string, error) {
	list, err := c.api.ListMessage(ctx, run.ThreadID, nil, nil, nil, nil, &run.RunID)
	if err != nil {
		return "", fmt.Errorf("%w: list messages: %v", ErrResult, err)
	}

	// Newest first; take the latest assistant-authored text part.
	for _, msg := range list.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		for _, part := range msg.Content {
			if part.Text != nil && strings.TrimSpace(part.Text.Value) != "" {
				return part.Text.Value, nil
			}
		}
	}

	return "", ErrResult
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("[assistant] invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}
