package questions

import (
	"context"
	"encoding/json"
	"fmt"

	game_constants "Trivio/constants/game"
	pg_models "Trivio/models/postgres"

	"gorm.io/gorm"
)

// PostgresProvider reads question sets through GORM.
type PostgresProvider struct {
	db *gorm.DB
}

func NewPostgresProvider(db *gorm.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) GetQuestionSet(ctx context.Context, setId string) (*QuestionSet, error) {
	var row pg_models.QuestionSet
	err := p.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&row, "id = ?", setId).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrSetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error loading question set %s: %w", setId, err)
	}

	set := &QuestionSet{
		Id:        row.ID,
		Name:      row.Name,
		Questions: make([]Question, 0, len(row.Questions)),
	}
	for i, q := range row.Questions {
		var options []string
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &options); err != nil {
				return nil, fmt.Errorf("error decoding options for question %d: %w", q.ID, err)
			}
		}
		limit := q.TimeLimitMs
		if limit <= 0 {
			limit = game_constants.DEFAULT_QUESTION_TIME_LIMIT.Milliseconds()
		}
		set.Questions = append(set.Questions, Question{
			Index:        i,
			Kind:         q.Kind,
			Prompt:       q.Prompt,
			Options:      options,
			CorrectIndex: q.CorrectIndex,
			Answer:       q.Answer,
			TimeLimitMs:  limit,
		})
	}
	return set, nil
}
