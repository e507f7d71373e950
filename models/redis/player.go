package redis

import "time"

// Player represents a participant's state during a live session.
// PlayerId is stable across reconnects; ConnectionId is rebound on reconnect.
type Player struct {
	PlayerId     string    `json:"player_id"`
	Nickname     string    `json:"nickname"`
	ConnectionId string    `json:"connection_id"`
	Connected    bool      `json:"connected"`
	JoinedAt     time.Time `json:"joined_at"`

	Score       int `json:"score"`
	Streak      int `json:"streak"`
	CoinsEarned int `json:"coins_earned"`

	// Per-question scratch fields, cleared at the start of every question.
	LastAnswerIndex  *int       `json:"last_answer_index,omitempty"`
	LastTextAnswer   *string    `json:"last_text_answer,omitempty"`
	LastAnswerTime   *time.Time `json:"last_answer_time,omitempty"`
	PenaltyDirection *string    `json:"penalty_direction,omitempty"`
	PenaltyResult    *string    `json:"penalty_result,omitempty"`
}

// HasAnswered reports whether the player submitted any answer this question.
func (p *Player) HasAnswered() bool {
	return p.LastAnswerIndex != nil || p.LastTextAnswer != nil
}

// ClearScratch resets the per-question scratch fields.
func (p *Player) ClearScratch() {
	p.LastAnswerIndex = nil
	p.LastTextAnswer = nil
	p.LastAnswerTime = nil
	p.PenaltyDirection = nil
	p.PenaltyResult = nil
}
