package store

import (
	"context"
	"errors"
	"sort"

	models "Trivio/models/redis"
)

// Sentinel errors shared by every backend.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrCodeExhausted = errors.New("could not allocate room code")
)

// Store is the session/player data store. Backends are swappable: an
// in-process map for a single node, Redis when sessions are shared.
//
// UpdateSession and UpdatePlayer take a mutate closure instead of a partial
// document: the backend runs it atomically with respect to that session
// (per-session lock in memory, WATCH transaction in Redis), which is what
// makes the phase/question-index guard race-free. If mutate returns an
// error the update is abandoned, nothing is written, and the error is
// returned as-is.
type Store interface {
	// CreateSession persists a new session, allocating a unique room code.
	// The caller fills every field except RoomCode.
	CreateSession(ctx context.Context, session *models.LiveSession) error
	GetSession(ctx context.Context, sessionId string) (*models.LiveSession, error)
	GetSessionByCode(ctx context.Context, roomCode string) (*models.LiveSession, error)
	UpdateSession(ctx context.Context, sessionId string, mutate func(*models.LiveSession) error) (*models.LiveSession, error)
	DeleteSession(ctx context.Context, sessionId string) error
	// ListSessions returns a snapshot of every live session (cleanup sweep).
	ListSessions(ctx context.Context) ([]models.LiveSession, error)

	AddPlayer(ctx context.Context, sessionId string, player *models.Player) error
	GetPlayers(ctx context.Context, sessionId string) ([]models.Player, error)
	GetPlayer(ctx context.Context, sessionId, playerId string) (*models.Player, error)
	UpdatePlayer(ctx context.Context, sessionId, playerId string, mutate func(*models.Player) error) (*models.Player, error)
	RemovePlayer(ctx context.Context, sessionId, playerId string) error
}

// sortPlayers orders a roster by join time (player id as tiebreak) so every
// backend returns rosters in the same, stable order.
func sortPlayers(players []models.Player) {
	sort.Slice(players, func(i, j int) bool {
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].PlayerId < players[j].PlayerId
	})
}
