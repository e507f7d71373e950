package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'QuestionSet' defines a playable set of questions. Managed through the
 * external REST surface; the game core only reads it.
 */
type QuestionSet struct {
	ID              string    `gorm:"primaryKey;size:50;not null"`
	Name            string    `gorm:"size:100;not null"`
	CreatorUsername string    `gorm:"size:50;index:idx_question_sets_creator"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	Questions []Question `gorm:"foreignKey:QuestionSetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

/*
 * 'Question' is a single question inside a set. Options holds the answer
 * choices as a JSON array; text questions leave it empty and match on Answer.
 */
type Question struct {
	ID            uint           `gorm:"primaryKey"`
	QuestionSetID string         `gorm:"size:50;not null;index:idx_questions_set"`
	Position      int            `gorm:"not null"`
	Kind          string         `gorm:"size:10;not null;default:'choice'"`
	Prompt        string         `gorm:"size:500;not null"`
	Options       datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	CorrectIndex  int            `gorm:"default:0"`
	Answer        string         `gorm:"size:200"` // canonical text answer, text kind only
	TimeLimitMs   int64          `gorm:"default:20000"`

	QuestionSet QuestionSet `gorm:"foreignKey:QuestionSetID"`
}
