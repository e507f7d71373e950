package sync

import (
	"context"
	"database/sql"
	"fmt"

	models "Trivio/models/redis"
)

// Ledger is the persistence collaborator the game core talks to at game end
// and for chat history. A failed write is logged upstream and never blocks
// phase progression.
type Ledger interface {
	// PersistCoins credits a player's earned coins for one finished game.
	PersistCoins(ctx context.Context, nickname, questionSetId string, coins int) error
	// HasCompleted reports whether the player already finished this set once
	// (drives the repeat-play coin multiplier).
	HasCompleted(ctx context.Context, nickname, questionSetId string) (bool, error)
	// RecordCompletion marks the set completed for the player.
	RecordCompletion(ctx context.Context, nickname, questionSetId string) error
	// SaveChatMessage appends a long-lived-channel message to history.
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
}

// SyncManager is the SQL-backed Ledger. It writes straight to PostgreSQL
// with database/sql; the game tables themselves are owned by the external
// management service, we only touch the ledger columns.
type SyncManager struct {
	db *sql.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(db *sql.DB) *SyncManager {
	return &SyncManager{db: db}
}

// PersistCoins upserts the player's profile row and adds the earned coins.
func (sm *SyncManager) PersistCoins(ctx context.Context, nickname, questionSetId string, coins int) error {
	query := `
		INSERT INTO game_profiles (username, coins)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE
		SET coins = game_profiles.coins + EXCLUDED.coins
	`
	if _, err := sm.db.ExecContext(ctx, query, nickname, coins); err != nil {
		return fmt.Errorf("error persisting coins for %s: %v", nickname, err)
	}
	return nil
}

// HasCompleted checks for a completion record of (player, set).
func (sm *SyncManager) HasCompleted(ctx context.Context, nickname, questionSetId string) (bool, error) {
	query := `SELECT COUNT(*) FROM set_completions WHERE username = $1 AND question_set_id = $2`
	var count int
	if err := sm.db.QueryRowContext(ctx, query, nickname, questionSetId).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking completion for %s: %v", nickname, err)
	}
	return count > 0, nil
}

// RecordCompletion inserts the completion record, keeping the first
// completion date on repeat plays.
func (sm *SyncManager) RecordCompletion(ctx context.Context, nickname, questionSetId string) error {
	query := `
		INSERT INTO set_completions (username, question_set_id)
		VALUES ($1, $2)
		ON CONFLICT (username, question_set_id) DO NOTHING
	`
	if _, err := sm.db.ExecContext(ctx, query, nickname, questionSetId); err != nil {
		return fmt.Errorf("error recording completion for %s: %v", nickname, err)
	}
	return nil
}

// SaveChatMessage appends one message to the channel history.
func (sm *SyncManager) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (channel, nickname, message, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := sm.db.ExecContext(ctx, query, msg.Channel, msg.Nickname, msg.Message, msg.Timestamp); err != nil {
		return fmt.Errorf("error saving chat message: %v", err)
	}
	return nil
}
