package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
)

type dialogRepo struct {
	db  queryer
	now func() time.Time
}

func (r dialogRepo) Get(ctx context.Context, chatID int64) (*dialog.Item, error) {
	var state, raw string
	err := r.db.QueryRowContext(ctx, `SELECT state, payload FROM dialog_states WHERE chat_id = ?`, chatID).Scan(&state, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
		}
		return nil, fmt.Errorf("querying dialog state: %w", err)
	}
	return dialog.Decode(chatID, state, []byte(raw)), nil
}

func (r dialogRepo) Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding dialog payload: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dialog_states (chat_id, state, payload, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT (chat_id) DO UPDATE SET
		  state=excluded.state, payload=excluded.payload, updated_at=excluded.updated_at
	`, chatID, string(state), string(raw), formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("saving dialog state: %w", err)
	}
	return nil
}

func (r dialogRepo) Reset(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dialog_states WHERE chat_id = ?`, chatID)
	return err
}
