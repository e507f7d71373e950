package handlers

import (
	"context"
	"log"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/questions"
	"Trivio/services/ratelimit"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/services/store"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleCreateRoom opens a new lobby for an authenticated host. The room code
// is allocated by the store; the host joins the session group immediately so
// every later broadcast reaches it.
func HandleCreateRoom(d *Deps, client socketio_types.Conn, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		if username == "" {
			emitError(client, utils.NewAuthorizationError("Hosting requires authentication"))
			return
		}
		if err := checkRateLimit(d, string(client.Id()), ratelimit.CreateRoom); err != nil {
			emitError(client, err)
			return
		}

		payload := utils.ParsePayload(args)
		setId, ok := utils.GetString(payload, "question_set_id")
		if !ok || setId == "" {
			emitError(client, utils.NewValidationError("question_set_id is required"))
			return
		}
		gameType, ok := utils.GetString(payload, "game_type")
		if !ok || gameType == "" {
			gameType = game_constants.GameTypeClassic
		}
		if gameType != game_constants.GameTypeClassic && gameType != game_constants.GameTypePenalty {
			emitError(client, utils.NewValidationError("Unknown game type"))
			return
		}

		set, err := d.Questions.GetQuestionSet(ctx, setId)
		if err == questions.ErrSetNotFound {
			emitError(client, utils.NewNotFoundError("Question set not found"))
			return
		}
		if err != nil {
			emitError(client, utils.NewUpstreamError("Could not load the question set"))
			return
		}
		if len(set.Questions) == 0 {
			emitError(client, utils.NewValidationError("Question set has no questions"))
			return
		}

		session := &models.LiveSession{
			Id:               uuid.NewString(),
			HostConnectionId: string(client.Id()),
			HostUsername:     username,
			HostConnected:    true,
			QuestionSetId:    setId,
			GameType:         gameType,
			CurrentPhase:     models.PhaseLobby,
			CreatedAt:        d.Clock.Now(),
		}
		if err := d.Store.CreateSession(ctx, session); err != nil {
			if err == store.ErrCodeExhausted {
				emitError(client, utils.NewUpstreamError("Could not allocate a room code, try again"))
				return
			}
			emitError(client, utils.NewUpstreamError("Could not create the room"))
			return
		}

		client.Join(socket.Room(session.Id))
		log.Printf("[LOBBY] Room %s created by %s (set %s, %s)", session.RoomCode, username, setId, gameType)

		client.Emit("room:created", gin.H{
			"session_id": session.Id,
			"room_code":  session.RoomCode,
			"game_type":  session.GameType,
		})
	}
}

// HandleKickPlayer removes a player from a lobby. Host only, lobby only; a
// running game never loses seats this way.
func HandleKickPlayer(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		payload := utils.ParsePayload(args)
		sessionId, _ := utils.GetString(payload, "session_id")
		playerId, _ := utils.GetString(payload, "player_id")
		if sessionId == "" || playerId == "" {
			emitError(client, utils.NewValidationError("session_id and player_id are required"))
			return
		}

		session, err := authorizeHost(ctx, d, client, sessionId)
		if err != nil {
			emitError(client, err)
			return
		}
		if session.CurrentPhase != models.PhaseLobby {
			emitError(client, utils.NewStateConflictError("Players can only be kicked in the lobby"))
			return
		}

		player, err := d.Store.GetPlayer(ctx, sessionId, playerId)
		if err != nil {
			emitError(client, storeError(err, "Player not found"))
			return
		}
		if err := d.Store.RemovePlayer(ctx, sessionId, playerId); err != nil {
			emitError(client, storeError(err, "Player not found"))
			return
		}

		d.Sio.EmitToConnection(player.ConnectionId, "player:kicked", gin.H{
			"session_id": sessionId,
			"player_id":  playerId,
		})
		d.Sio.LeaveGroup(player.ConnectionId, sessionId)
		log.Printf("[LOBBY] Player %s (%s) kicked from session %s", player.Nickname, playerId, sessionId)

		broadcastRoster(ctx, d, sessionId)
	}
}
