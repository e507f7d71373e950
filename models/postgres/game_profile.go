package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'GameProfile' is the persistent profile of a registered (host-capable)
 * user. Coins accumulated across games land here through the ledger.
 */
type GameProfile struct {
	Username  string         `gorm:"primaryKey;size:50;not null"`
	Coins     int            `gorm:"default:0"`
	UserStats datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	QuestionSets   []QuestionSet   `gorm:"foreignKey:CreatorUsername"`
	SetCompletions []SetCompletion `gorm:"foreignKey:Username"`
}

/*
 * 'SetCompletion' records that a player finished a question set once. Its
 * existence drives the repeat-play coin multiplier.
 */
type SetCompletion struct {
	Username      string    `gorm:"primaryKey;size:50;not null"`
	QuestionSetID string    `gorm:"primaryKey;size:50;not null"`
	CompletedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

/*
 * 'ChatMessage' is the persisted form of a long-lived-channel chat message.
 * Ephemeral channels are relay-only and never reach this table.
 */
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	Channel   string    `gorm:"size:80;not null;index:idx_chat_messages_channel"`
	Nickname  string    `gorm:"size:50;not null"`
	Message   string    `gorm:"size:300;not null"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}
