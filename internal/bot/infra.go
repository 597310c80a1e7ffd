package bot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type repo struct {
	db *sql.DB
}

// NewRepo returns a Postgres-backed Store. Expected schema:
//
//	CREATE TABLE prompts (
//	    user_id    text PRIMARY KEY,
//	    entries    jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE TABLE history (
//	    id              bigserial PRIMARY KEY,
//	    conversation_id text NOT NULL,
//	    speaker         text NOT NULL,
//	    text            text NOT NULL,
//	    created_at      timestamptz NOT NULL DEFAULT now()
//	);
func NewRepo(db *sql.DB) Store {
	return &repo{db: db}
}

func (r *repo) GetPrompt(ctx context.Context, userID string) (Prompt, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT entries FROM prompts WHERE user_id = $1
	`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Prompt{}, nil
	}
	if err != nil {
		return Prompt{}, err
	}

	var entries []PromptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Prompt{}, fmt.Errorf("decode prompt for %s: %w", userID, err)
	}
	return Prompt{Entries: entries}, nil
}

func (r *repo) SetPrompt(ctx context.Context, userID string, p Prompt) error {
	raw, err := json.Marshal(p.Entries)
	if err != nil {
		return fmt.Errorf("encode prompt for %s: %w", userID, err)
	}

	// Last write wins.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO prompts (user_id, entries, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET entries = EXCLUDED.entries, updated_at = now()
	`, userID, raw)
	return err
}

func (r *repo) UpdateHistory(ctx context.Context, conversationID string, fn func(History) History) error {
	current, err := r.loadHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	next := fn(current)
	if len(next.Entries) < len(current.Entries) {
		return errors.New("history transform must not drop entries")
	}

	for _, e := range next.Entries[len(current.Entries):] {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO history (conversation_id, speaker, text)
			VALUES ($1, $2, $3)
		`, conversationID, e.Speaker, e.Text); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) loadHistory(ctx context.Context, conversationID string) (History, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT speaker, text
		FROM history
		WHERE conversation_id = $1
		ORDER BY id ASC
	`, conversationID)
	if err != nil {
		return History{}, err
	}
	defer rows.Close()

	var h History
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Speaker, &e.Text); err != nil {
			return History{}, err
		}
		h.Entries = append(h.Entries, e)
	}
	return h, rows.Err()
}
