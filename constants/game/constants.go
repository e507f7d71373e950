package game_constants

import "time"

// Game variants
const (
	GameTypeClassic = "classic"
	GameTypePenalty = "penalty-variant"
)

// Phase progression timing
const (
	COUNTDOWN_DURATION   = 5 * time.Second
	PENALTY_KICK_TIMEOUT = 10 * time.Second
	// Fallback when the question set does not carry a per-question limit
	DEFAULT_QUESTION_TIME_LIMIT = 20 * time.Second
)

// Session lifecycle
const (
	HOST_DISCONNECT_GRACE = 2 * time.Minute
	LOBBY_STALL_TIMEOUT   = 30 * time.Minute
	CLEANUP_SWEEP_PERIOD  = 1 * time.Minute
	SESSION_TTL           = 24 * time.Hour
)

// Room codes. No 0/O/1/I/L so codes survive being read out loud.
const (
	ROOM_CODE_ALPHABET = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	ROOM_CODE_LENGTH   = 6
	ROOM_CODE_ATTEMPTS = 10
)

// Lobby limits
const (
	MAX_PLAYERS_PER_ROOM = 40
	MIN_NICKNAME_LENGTH  = 2
	MAX_NICKNAME_LENGTH  = 16
)

// Scoring
const (
	BASE_SCORE = 1000
	MAX_BONUS  = 500
	// Answers with a smaller elapsed time than this are scored as BASE_SCORE
	// only. Kept at zero: an instant answer is still a legal answer, only
	// negative (clock-skewed) timestamps are clamped.
	MIN_ANSWER_ELAPSED_MS = 0
)

// Coins
const (
	COINS_PER_CORRECT      = 10
	COINS_STREAK_BONUS     = 5
	COINS_FIRST_PLACE      = 50
	COINS_SECOND_PLACE     = 30
	COINS_THIRD_PLACE      = 20
	REPEAT_PLAY_MULTIPLIER = 0.5
)

// Penalty kick directions
const (
	KickLeft   = "left"
	KickCenter = "center"
	KickRight  = "right"
)

// Penalty outcomes
const (
	PenaltyGoal = "goal"
	PenaltySave = "save"
	PenaltyMiss = "miss"
)

// Chat
const (
	MAX_CHAT_MESSAGE_LENGTH = 300
	LOBBY_CHANNEL_PREFIX    = "lobby:"
	QUESTION_CHANNEL_PREFIX = "question:"
)
