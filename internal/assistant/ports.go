package assistant

import (
	"context"
	"errors"
)

// Assistant — the remote brain; knows nothing about LINE or the store.
type Assistant interface {
	Reply(ctx context.Context, userMessage string) (string, error)
}

// RunState tracks one remote run from creation to a terminal state.
type RunState string

const (
	RunStateCreated    RunState = "created"
	RunStateInProgress RunState = "in_progress"
	RunStateCompleted  RunState = "completed"
	RunStateFailed     RunState = "failed"
	RunStateTimedOut   RunState = "timed_out"
)

// RemoteRun is one unit of work on the assistant service. It lives for a
// single turn and is never persisted; a process restart abandons the run.
type RemoteRun struct {
	ThreadID   string
	RunID      string
	State      RunState
	ResultText string
}

var (
	// ErrCreate — thread or run creation failed, regardless of which call.
	ErrCreate = errors.New("assistant: create thread/run failed")
	// ErrStatus — a run status query failed.
	ErrStatus = errors.New("assistant: run status query failed")
	// ErrResult — a completed run has no retrievable assistant message.
	ErrResult = errors.New("assistant: no assistant message in thread")
	// ErrRunFailed — the run reached a terminal failed state remotely.
	ErrRunFailed = errors.New("assistant: run failed")
	// ErrTimedOut — the poll bound elapsed before the run settled.
	ErrTimedOut = errors.New("assistant: run polling timed out")
)
