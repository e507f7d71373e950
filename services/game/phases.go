package game

import (
	"fmt"

	models "Trivio/models/redis"
	"Trivio/utils"
)

// Events driving the phase state machine.
const (
	EventStartGame         = "START_GAME"
	EventCountdownComplete = "COUNTDOWN_COMPLETE"
	EventTimeUp            = "TIME_UP"
	EventPenaltyStart      = "PENALTY_START"
	EventPenaltyComplete   = "PENALTY_COMPLETE"
	EventShowLeaderboard   = "SHOW_LEADERBOARD"
	EventNextQuestion      = "NEXT_QUESTION"
	EventGameOver          = "GAME_OVER"
)

// TransitionContext disambiguates NEXT_QUESTION vs GAME_OVER out of
// LEADERBOARD. When nil, either event is accepted (caller-validated path).
type TransitionContext struct {
	CurrentQuestionIndex int
	TotalQuestions       int
}

// transitions is the full (phase, event) -> phase table. Anything absent is
// an invalid transition.
var transitions = map[string]map[string]string{
	models.PhaseLobby: {
		EventStartGame: models.PhaseCountdown,
	},
	models.PhaseCountdown: {
		EventCountdownComplete: models.PhaseQuestion,
	},
	models.PhaseQuestion: {
		EventTimeUp:       models.PhaseReveal,      // classic path
		EventPenaltyStart: models.PhasePenaltyKick, // penalty variant
	},
	models.PhasePenaltyKick: {
		EventPenaltyComplete: models.PhaseReveal,
	},
	models.PhaseReveal: {
		EventShowLeaderboard: models.PhaseLeaderboard,
	},
	models.PhaseLeaderboard: {
		EventNextQuestion: models.PhaseCountdown,
		EventGameOver:     models.PhaseEnd,
	},
}

// Transition is a pure function mapping (phase, event, optional context) to
// the next phase. It never mutates anything; callers persist the result. An
// illegal pair returns a state-conflict error and the phase is unchanged by
// construction.
func Transition(current, event string, tctx *TransitionContext) (string, error) {
	next, ok := transitions[current][event]
	if !ok {
		return current, utils.NewStateConflictError(
			fmt.Sprintf("invalid transition: cannot apply %s while in %s", event, current))
	}

	if current == models.PhaseLeaderboard && tctx != nil {
		onLast := tctx.CurrentQuestionIndex >= tctx.TotalQuestions-1
		if event == EventNextQuestion && onLast {
			return current, utils.NewStateConflictError("no more questions, use GAME_OVER")
		}
		if event == EventGameOver && !onLast {
			return current, utils.NewStateConflictError("more questions remain")
		}
	}

	return next, nil
}
