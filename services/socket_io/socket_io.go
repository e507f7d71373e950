package socket_io

import (
	"log"
	"time"

	"Trivio/services/socket_io/handlers"
	socketio_types "Trivio/services/socket_io/types"
	socketio_utils "Trivio/services/socket_io/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Start configures the socket.io server, registers the event table for every
// new connection and mounts the transport endpoints on the router.
func Start(sio *socketio_types.SocketServer, router *gin.Engine, deps *handlers.Deps) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// Higher ping interval and timeout to reduce network load and support
	// slower networks.
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Hosts carry a bearer token in the handshake; players connect
		// anonymously. A malformed token drops the connection.
		username, err := socketio_utils.VerifyHostConnection(client)
		if err != nil {
			client.Emit("error", gin.H{"code": "AUTHORIZATION_ERROR", "message": err.Error()})
			client.Disconnect(true)
			return
		}

		sio.AddConnection(client)
		log.Printf("[SOCKET] Client %s connected (host=%q)", client.Id(), username)

		// Lobby lifecycle
		client.On("create_room", handlers.HandleCreateRoom(deps, client, username))
		client.On("join_room", handlers.HandleJoinRoom(deps, client))
		client.On("kick_player", handlers.HandleKickPlayer(deps, client))
		client.On("reconnect", handlers.HandleReconnect(deps, client, username))

		// Host game controls
		client.On("start_game", handlers.HandleStartGame(deps, client))
		client.On("show_leaderboard", handlers.HandleShowLeaderboard(deps, client))
		client.On("advance_game", handlers.HandleAdvanceGame(deps, client))

		// Player submissions
		client.On("submit_answer", handlers.HandleSubmitAnswer(deps, client))
		client.On("submit_text_answer", handlers.HandleSubmitTextAnswer(deps, client))
		client.On("submit_kick", handlers.HandleSubmitKick(deps, client))

		// Chat channels
		client.On("join_channel", handlers.HandleJoinChannel(deps, client, username))
		client.On("leave_channel", handlers.HandleLeaveChannel(deps, client))
		client.On("send_message", handlers.HandleSendMessage(deps, client, username))

		client.On("disconnecting", func(args ...interface{}) {
			handlers.HandleDisconnecting(deps, client)(args...)
			sio.RemoveConnection(client.Id())
			log.Printf("[SOCKET] Client %s disconnected", client.Id())
		})
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Println("[SOCKET] Socket server started")
}
