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
	"github.com/zishang520/socket.io/v2/socket"
)

// parseChannel splits a chat channel name into its session id and whether
// messages on it are persisted. Lobby channels outlive the game; question
// channels are ephemeral commentary.
func parseChannel(channel string) (sessionId string, persisted bool, err error) {
	switch {
	case strings.HasPrefix(channel, game_constants.LOBBY_CHANNEL_PREFIX):
		return strings.TrimPrefix(channel, game_constants.LOBBY_CHANNEL_PREFIX), true, nil
	case strings.HasPrefix(channel, game_constants.QUESTION_CHANNEL_PREFIX):
		return strings.TrimPrefix(channel, game_constants.QUESTION_CHANNEL_PREFIX), false, nil
	default:
		return "", false, utils.NewValidationError("Unknown chat channel")
	}
}

// senderName resolves what name a connection chats under: its seat's
// nickname, or the host's account name.
func senderName(ctx context.Context, d *Deps, client socketio_types.Conn, username, sessionId string) (string, error) {
	session, err := d.Store.GetSession(ctx, sessionId)
	if err != nil {
		return "", storeError(err, "Session not found")
	}
	if session.HostConnectionId == string(client.Id()) {
		return username, nil
	}
	player, err := findPlayerByConnection(ctx, d, sessionId, string(client.Id()))
	if err != nil {
		return "", err
	}
	return player.Nickname, nil
}

// HandleJoinChannel subscribes a connection to a chat channel. Membership in
// the session is required; lurking in other rooms' chat is not a feature.
func HandleJoinChannel(d *Deps, client socketio_types.Conn, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		payload := utils.ParsePayload(args)
		channel, _ := utils.GetString(payload, "channel")
		sessionId, _, err := parseChannel(channel)
		if err != nil {
			emitError(client, err)
			return
		}
		if _, err := senderName(ctx, d, client, username, sessionId); err != nil {
			emitError(client, err)
			return
		}
		client.Join(socket.Room(channel))
	}
}

// HandleLeaveChannel unsubscribes a connection from a chat channel.
func HandleLeaveChannel(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload := utils.ParsePayload(args)
		channel, _ := utils.GetString(payload, "channel")
		if _, _, err := parseChannel(channel); err != nil {
			emitError(client, err)
			return
		}
		client.Leave(socket.Room(channel))
	}
}

// HandleSendMessage relays a chat message to a channel. Lobby-channel
// messages are also written to Postgres; a failed write is logged and the
// relay goes out anyway.
func HandleSendMessage(d *Deps, client socketio_types.Conn, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		if err := checkRateLimit(d, string(client.Id()), ratelimit.SendMessage); err != nil {
			emitError(client, err)
			return
		}

		payload := utils.ParsePayload(args)
		channel, _ := utils.GetString(payload, "channel")
		message, _ := utils.GetString(payload, "message")

		sessionId, persisted, err := parseChannel(channel)
		if err != nil {
			emitError(client, err)
			return
		}
		message = strings.TrimSpace(message)
		if message == "" {
			emitError(client, utils.NewValidationError("Message is empty"))
			return
		}
		if len(message) > game_constants.MAX_CHAT_MESSAGE_LENGTH {
			emitError(client, utils.NewValidationError("Message is too long"))
			return
		}
		if !d.Filter.IsClean(message) {
			emitError(client, utils.NewValidationError("That message is not allowed"))
			return
		}

		nickname, err := senderName(ctx, d, client, username, sessionId)
		if err != nil {
			emitError(client, err)
			return
		}

		chatMessage := models.ChatMessage{
			Channel:   channel,
			Nickname:  nickname,
			Message:   message,
			Timestamp: d.Clock.Now(),
		}
		if persisted {
			if err := d.Ledger.SaveChatMessage(ctx, &chatMessage); err != nil {
				log.Printf("[CHAT-ERROR] Error persisting message on %s: %v", channel, err)
			}
		}

		d.Sio.EmitToGroup(channel, "chat:message", gin.H{
			"channel":   chatMessage.Channel,
			"nickname":  chatMessage.Nickname,
			"message":   chatMessage.Message,
			"timestamp": chatMessage.Timestamp.UnixMilli(),
		})
	}
}
