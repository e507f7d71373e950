package redis

import "time"

// Game phases. PhasePenaltyKick is only reachable for the penalty variant.
const (
	PhaseLobby       = "LOBBY"
	PhaseCountdown   = "COUNTDOWN"
	PhaseQuestion    = "QUESTION"
	PhasePenaltyKick = "PENALTY_KICK"
	PhaseReveal      = "REVEAL"
	PhaseLeaderboard = "LEADERBOARD"
	PhaseEnd         = "END"
)

// LiveSession represents one live game room. It is the unit of storage and
// the unit of atomicity: every mutation goes through Store.UpdateSession so
// the phase/question-index guard is race-free.
type LiveSession struct {
	Id       string `json:"id"`
	RoomCode string `json:"room_code"`

	HostConnectionId   string     `json:"host_connection_id"`
	HostUsername       string     `json:"host_username"`
	HostConnected      bool       `json:"host_connected"`
	HostDisconnectedAt *time.Time `json:"host_disconnected_at,omitempty"`

	QuestionSetId string `json:"question_set_id"`
	GameType      string `json:"game_type"`

	CurrentPhase         string     `json:"current_phase"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	QuestionStartedAt    *time.Time `json:"question_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// InQuestion reports whether the session is inside questionIndex's active
// window (QUESTION, or PENALTY_KICK for the variant).
func (s *LiveSession) InQuestion(questionIndex int) bool {
	if s.CurrentQuestionIndex != questionIndex {
		return false
	}
	return s.CurrentPhase == PhaseQuestion || s.CurrentPhase == PhasePenaltyKick
}
