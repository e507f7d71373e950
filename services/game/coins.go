package game

import (
	"math"

	game_constants "Trivio/constants/game"
)

// QuestionCoins is the per-question coin reward: a flat amount per correct
// answer plus a streak bonus once the streak reaches two. The streak passed
// in is the value AFTER this question was applied.
func QuestionCoins(correct bool, streak int) int {
	if !correct {
		return 0
	}
	coins := game_constants.COINS_PER_CORRECT
	if streak >= 2 {
		coins += game_constants.COINS_STREAK_BONUS
	}
	return coins
}

// PlacementBonus returns the end-of-game coin bonus for a final rank
// (1-based). Ranks past third earn nothing.
func PlacementBonus(rank int) int {
	switch rank {
	case 1:
		return game_constants.COINS_FIRST_PLACE
	case 2:
		return game_constants.COINS_SECOND_PLACE
	case 3:
		return game_constants.COINS_THIRD_PLACE
	default:
		return 0
	}
}

// FinalCoins applies the placement bonus and the repeat-play multiplier to a
// player's per-question coin total. repeatPlay is true when the player has a
// prior completion record for this question set.
func FinalCoins(questionCoins, rank int, repeatPlay bool) int {
	total := float64(questionCoins + PlacementBonus(rank))
	if repeatPlay {
		total *= game_constants.REPEAT_PLAY_MULTIPLIER
	}
	return int(math.Round(total))
}
