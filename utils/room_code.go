package utils

import (
	"math/rand"
	"strings"

	game_constants "Trivio/constants/game"
)

// GenerateRoomCode returns a random join code drawn from the unambiguous
// alphabet. Uniqueness is the store's problem (it retries on collision).
func GenerateRoomCode() string {
	b := make([]byte, game_constants.ROOM_CODE_LENGTH)
	for i := range b {
		b[i] = game_constants.ROOM_CODE_ALPHABET[rand.Intn(len(game_constants.ROOM_CODE_ALPHABET))]
	}
	return string(b)
}

// NormalizeRoomCode upper-cases a user-typed code for case-insensitive lookup.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode checks length and alphabet membership of a normalized code.
func IsValidRoomCode(code string) bool {
	if len(code) != game_constants.ROOM_CODE_LENGTH {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(game_constants.ROOM_CODE_ALPHABET, rune(code[i])) {
			return false
		}
	}
	return true
}
