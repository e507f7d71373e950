package game

import (
	"math"
	"strings"

	game_constants "Trivio/constants/game"
)

// QuestionScore is the classic timing-based score. Wrong answers score zero.
// Correct answers earn the base plus a time bonus that decays linearly over
// the question's limit; degenerate inputs (negative elapsed, elapsed at or
// past the limit, non-positive limit) clamp to the base alone.
func QuestionScore(correct bool, elapsedMs, limitMs int64) int {
	if !correct {
		return 0
	}
	if limitMs <= 0 || elapsedMs < game_constants.MIN_ANSWER_ELAPSED_MS || elapsedMs >= limitMs {
		return game_constants.BASE_SCORE
	}
	fraction := 1 - float64(elapsedMs)/float64(limitMs)
	if fraction < 0 {
		fraction = 0
	}
	return game_constants.BASE_SCORE + int(math.Round(game_constants.MAX_BONUS*fraction))
}

// NormalizeAnswer lowercases, trims, and collapses internal whitespace so
// "  Apple " and "apple" compare equal.
func NormalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TextScore scores a free-text answer: normalized exact match, then the
// classic base+bonus formula on the same elapsed/limit inputs.
func TextScore(submitted, expected string, elapsedMs, limitMs int64) int {
	correct := NormalizeAnswer(submitted) == NormalizeAnswer(expected)
	return QuestionScore(correct, elapsedMs, limitMs)
}

// PenaltyScore is the dual-gate variant score: points flow only when the
// quiz answer was correct AND the penalty was scored. The point value is the
// classic formula over the quiz answer's timing.
func PenaltyScore(quizCorrect, penaltyScored bool, elapsedMs, limitMs int64) int {
	if !quizCorrect || !penaltyScored {
		return 0
	}
	return QuestionScore(true, elapsedMs, limitMs)
}

// NextStreak advances a player's streak: +1 on a scoring outcome, reset on
// anything else.
func NextStreak(streak, points int) int {
	if points > 0 {
		return streak + 1
	}
	return 0
}
