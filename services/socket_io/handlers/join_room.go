package handlers

import (
	"context"
	"log"
	"strings"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/services/ratelimit"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleJoinRoom seats an anonymous player in a lobby by room code. Joining
// a running game is rejected; reconnecting players use `reconnect` instead.
func HandleJoinRoom(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		if err := checkRateLimit(d, string(client.Id()), ratelimit.JoinRoom); err != nil {
			emitError(client, err)
			return
		}

		payload := utils.ParsePayload(args)
		rawCode, _ := utils.GetString(payload, "room_code")
		rawNickname, _ := utils.GetString(payload, "nickname")

		code := utils.NormalizeRoomCode(rawCode)
		if !utils.IsValidRoomCode(code) {
			emitError(client, utils.NewValidationError("Invalid room code"))
			return
		}
		nickname, err := normalizeNickname(rawNickname)
		if err != nil {
			emitError(client, err)
			return
		}
		if !d.Filter.IsClean(nickname) {
			emitError(client, utils.NewValidationError("That nickname is not allowed"))
			return
		}

		session, err := d.Store.GetSessionByCode(ctx, code)
		if err != nil {
			emitError(client, storeError(err, "Room not found"))
			return
		}
		if session.CurrentPhase != models.PhaseLobby {
			emitError(client, utils.NewStateConflictError("The game is already in progress"))
			return
		}

		players, err := d.Store.GetPlayers(ctx, session.Id)
		if err != nil {
			emitError(client, utils.NewUpstreamError("Could not load the room"))
			return
		}
		if len(players) >= game_constants.MAX_PLAYERS_PER_ROOM {
			emitError(client, utils.NewStateConflictError("The room is full"))
			return
		}
		for _, p := range players {
			if strings.EqualFold(p.Nickname, nickname) {
				emitError(client, utils.NewValidationError("That nickname is already taken"))
				return
			}
		}

		player := &models.Player{
			PlayerId:     uuid.NewString(),
			Nickname:     nickname,
			ConnectionId: string(client.Id()),
			Connected:    true,
			JoinedAt:     d.Clock.Now(),
		}
		if err := d.Store.AddPlayer(ctx, session.Id, player); err != nil {
			emitError(client, utils.NewUpstreamError("Could not join the room"))
			return
		}

		client.Join(socket.Room(session.Id))
		log.Printf("[JOIN] %s joined room %s as %s", player.PlayerId, code, nickname)

		client.Emit("player:joined", gin.H{
			"session_id": session.Id,
			"player_id":  player.PlayerId,
			"nickname":   nickname,
			"room_code":  code,
			"game_type":  session.GameType,
		})
		broadcastRoster(ctx, d, session.Id)
	}
}
