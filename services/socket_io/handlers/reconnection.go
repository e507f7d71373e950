package handlers

import (
	"context"
	"log"

	models "Trivio/models/redis"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleReconnect rebinds a dropped host or player to a fresh connection and
// replays the full game state. With player_id the caller resumes a seat;
// without it an authenticated host reclaims the room. The rebind is written
// first so the snapshot read that follows can never be fresher than the
// binding it describes.
func HandleReconnect(d *Deps, client socketio_types.Conn, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		payload := utils.ParsePayload(args)
		sessionId, _ := utils.GetString(payload, "session_id")
		playerId, _ := utils.GetString(payload, "player_id")
		if sessionId == "" {
			emitError(client, utils.NewValidationError("session_id is required"))
			return
		}

		if playerId == "" {
			reconnectHost(ctx, d, client, username, sessionId)
			return
		}
		reconnectPlayer(ctx, d, client, sessionId, playerId)
	}
}

func reconnectHost(ctx context.Context, d *Deps, client socketio_types.Conn, username, sessionId string) {
	if username == "" {
		emitError(client, utils.NewAuthorizationError("Reclaiming a room requires authentication"))
		return
	}

	session, err := d.Store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		if s.HostUsername != username {
			return utils.NewAuthorizationError("This is not your room")
		}
		s.HostConnectionId = string(client.Id())
		s.HostConnected = true
		s.HostDisconnectedAt = nil
		return nil
	})
	if err != nil {
		emitError(client, storeError(err, "Session not found"))
		return
	}

	client.Join(socket.Room(sessionId))
	log.Printf("[RECONNECT] Host %s reclaimed session %s", username, sessionId)

	client.Emit("game:state", stateSnapshot(ctx, d, session, nil))
	broadcastRoster(ctx, d, sessionId)
}

func reconnectPlayer(ctx context.Context, d *Deps, client socketio_types.Conn, sessionId, playerId string) {
	player, err := d.Store.UpdatePlayer(ctx, sessionId, playerId, func(pl *models.Player) error {
		pl.ConnectionId = string(client.Id())
		pl.Connected = true
		return nil
	})
	if err != nil {
		emitError(client, storeError(err, "Player not found"))
		return
	}

	session, err := d.Store.GetSession(ctx, sessionId)
	if err != nil {
		emitError(client, storeError(err, "Session not found"))
		return
	}

	client.Join(socket.Room(sessionId))
	log.Printf("[RECONNECT] Player %s (%s) resumed session %s", player.Nickname, playerId, sessionId)

	client.Emit("game:state", stateSnapshot(ctx, d, session, player))
	broadcastRoster(ctx, d, sessionId)
}

// stateSnapshot assembles everything a rejoining client needs to rebuild its
// screen: phase, question timing, standings and (for players) its own
// submission state.
func stateSnapshot(ctx context.Context, d *Deps, session *models.LiveSession, me *models.Player) gin.H {
	snapshot := gin.H{
		"session_id":     session.Id,
		"room_code":      session.RoomCode,
		"game_type":      session.GameType,
		"phase":          session.CurrentPhase,
		"question_index": session.CurrentQuestionIndex,
		"host_connected": session.HostConnected,
	}

	if players, err := d.Store.GetPlayers(ctx, session.Id); err == nil {
		snapshot["players"] = rosterPayload(session, players)["players"]
	}

	if session.CurrentPhase == models.PhaseQuestion && session.QuestionStartedAt != nil {
		if set, err := d.Questions.GetQuestionSet(ctx, session.QuestionSetId); err == nil &&
			session.CurrentQuestionIndex < len(set.Questions) {
			question := set.Questions[session.CurrentQuestionIndex]
			elapsed := d.Clock.Now().Sub(*session.QuestionStartedAt).Milliseconds()
			remaining := question.TimeLimitMs - elapsed
			if remaining < 0 {
				remaining = 0
			}
			snapshot["question"] = gin.H{
				"kind":          question.Kind,
				"prompt":        question.Prompt,
				"options":       question.Options,
				"time_limit_ms": question.TimeLimitMs,
			}
			snapshot["remaining_ms"] = remaining
		}
	}

	if me != nil {
		snapshot["player_id"] = me.PlayerId
		snapshot["nickname"] = me.Nickname
		snapshot["score"] = me.Score
		snapshot["streak"] = me.Streak
		snapshot["has_answered"] = me.HasAnswered()
		snapshot["has_kicked"] = me.PenaltyDirection != nil
	}
	return snapshot
}
