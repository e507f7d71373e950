package handlers

import (
	"context"
	"log"
	"strings"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/game_flow"
	"Trivio/services/moderation"
	"Trivio/services/questions"
	"Trivio/services/ratelimit"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/services/store"
	gamesync "Trivio/sync"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Deps carries every collaborator the handlers consume. Constructed once at
// startup and injected; no handler reaches for a global.
type Deps struct {
	Store     store.Store
	Limiter   *ratelimit.Limiter
	Flow      *game_flow.GameFlow
	Sio       socketio_types.Broadcaster
	Questions questions.Provider
	Ledger    gamesync.Ledger
	Filter    moderation.Filter
	Clock     clockwork.Clock
}

// emitError converts any failure into exactly one typed `error` event to the
// originating client. Broadcasts never happen on a failed mutation.
func emitError(client socketio_types.Conn, err error) {
	ge := utils.AsGameError(err)
	if ge.Code == utils.ErrUpstream {
		log.Printf("[HANDLER-ERROR] %v", err)
	}
	payload := gin.H{"code": ge.Code, "message": ge.Message}
	if ge.Details != nil {
		payload["details"] = ge.Details
	}
	client.Emit("error", payload)
}

// storeError maps store sentinels onto the client-facing taxonomy.
func storeError(err error, notFoundMessage string) error {
	switch err {
	case store.ErrNotFound:
		return utils.NewNotFoundError(notFoundMessage)
	case store.ErrAlreadyExists:
		return utils.NewStateConflictError("already exists")
	default:
		return err
	}
}

// checkRateLimit applies one action policy and returns the typed rejection.
func checkRateLimit(d *Deps, clientId string, cfg ratelimit.Config) error {
	res := d.Limiter.IsAllowed(clientId, cfg)
	if !res.Allowed {
		return utils.NewRateLimitedError("Too many requests, slow down", res.ResetAfterMs)
	}
	return nil
}

// authorizeHost loads a session and checks that the caller is its bound host.
func authorizeHost(ctx context.Context, d *Deps, client socketio_types.Conn, sessionId string) (*models.LiveSession, error) {
	session, err := d.Store.GetSession(ctx, sessionId)
	if err != nil {
		return nil, storeError(err, "Session not found")
	}
	if session.HostConnectionId != string(client.Id()) {
		return nil, utils.NewAuthorizationError("Only the host can do that")
	}
	return session, nil
}

// findPlayerByConnection resolves which seat a connection occupies.
func findPlayerByConnection(ctx context.Context, d *Deps, sessionId, connectionId string) (*models.Player, error) {
	players, err := d.Store.GetPlayers(ctx, sessionId)
	if err != nil {
		return nil, storeError(err, "Session not found")
	}
	for i := range players {
		if players[i].ConnectionId == connectionId {
			return &players[i], nil
		}
	}
	return nil, utils.NewNotFoundError("You are not seated in this room")
}

// rosterPayload is the shared shape of room:roster_update.
func rosterPayload(session *models.LiveSession, players []models.Player) gin.H {
	roster := make([]gin.H, len(players))
	for i, p := range players {
		roster[i] = gin.H{
			"player_id": p.PlayerId,
			"nickname":  p.Nickname,
			"connected": p.Connected,
			"score":     p.Score,
		}
	}
	return gin.H{
		"session_id":     session.Id,
		"host_connected": session.HostConnected,
		"players":        roster,
	}
}

// broadcastRoster emits the current roster to the whole room.
func broadcastRoster(ctx context.Context, d *Deps, sessionId string) {
	session, err := d.Store.GetSession(ctx, sessionId)
	if err != nil {
		return
	}
	players, err := d.Store.GetPlayers(ctx, sessionId)
	if err != nil {
		return
	}
	d.Sio.EmitToGroup(sessionId, "room:roster_update", rosterPayload(session, players))
}

// normalizeNickname trims and validates a requested nickname.
func normalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < game_constants.MIN_NICKNAME_LENGTH || len(nickname) > game_constants.MAX_NICKNAME_LENGTH {
		return "", utils.NewValidationError("Nickname must be 2-16 characters")
	}
	for _, r := range nickname {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ', r == '_', r == '-':
		default:
			return "", utils.NewValidationError("Nickname has unsupported characters")
		}
	}
	return nickname, nil
}
