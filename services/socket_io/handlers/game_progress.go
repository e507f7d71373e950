package handlers

import (
	"context"

	socketio_types "Trivio/services/socket_io/types"
	"Trivio/utils"
)

// The three host controls share a shape: resolve the session, verify the
// caller is its host, hand the transition to the game flow. Every phase rule
// lives in the flow and its transition table, not here.

func hostAction(d *Deps, client socketio_types.Conn,
	action func(ctx context.Context, sessionId string) error) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()

		payload := utils.ParsePayload(args)
		sessionId, ok := utils.GetString(payload, "session_id")
		if !ok || sessionId == "" {
			emitError(client, utils.NewValidationError("session_id is required"))
			return
		}
		if _, err := authorizeHost(ctx, d, client, sessionId); err != nil {
			emitError(client, err)
			return
		}
		if err := action(ctx, sessionId); err != nil {
			emitError(client, err)
		}
	}
}

// HandleStartGame launches the countdown for the first question.
func HandleStartGame(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return hostAction(d, client, d.Flow.StartGame)
}

// HandleShowLeaderboard moves a revealed question to the standings screen.
func HandleShowLeaderboard(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return hostAction(d, client, d.Flow.ShowLeaderboard)
}

// HandleAdvanceGame leaves the leaderboard, either into the next question's
// countdown or into the final results.
func HandleAdvanceGame(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return hostAction(d, client, d.Flow.AdvanceGame)
}
