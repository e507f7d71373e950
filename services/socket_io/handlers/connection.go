package handlers

import (
	"context"
	"log"

	models "Trivio/models/redis"
	socketio_types "Trivio/services/socket_io/types"
)

// HandleDisconnecting marks the dropped connection's seat or host binding as
// disconnected. Nothing is deleted here: players keep their score for a
// reconnect, and abandoned sessions are reaped by the cleanup sweep.
func HandleDisconnecting(d *Deps, client socketio_types.Conn) func(args ...interface{}) {
	return func(args ...interface{}) {
		ctx := context.Background()
		connectionId := string(client.Id())

		sessions, err := d.Store.ListSessions(ctx)
		if err != nil {
			log.Printf("[DISCONNECT-ERROR] Error listing sessions: %v", err)
			return
		}

		for _, session := range sessions {
			if session.HostConnectionId == connectionId {
				markHostGone(ctx, d, session.Id, connectionId)
				continue
			}
			players, err := d.Store.GetPlayers(ctx, session.Id)
			if err != nil {
				continue
			}
			for _, p := range players {
				if p.ConnectionId != connectionId {
					continue
				}
				markPlayerGone(ctx, d, session.Id, p.PlayerId, connectionId)
			}
		}
	}
}

func markHostGone(ctx context.Context, d *Deps, sessionId, connectionId string) {
	gone := d.Clock.Now()
	_, err := d.Store.UpdateSession(ctx, sessionId, func(s *models.LiveSession) error {
		// The host may already have rebound through a new connection.
		if s.HostConnectionId != connectionId {
			return nil
		}
		s.HostConnected = false
		s.HostDisconnectedAt = &gone
		return nil
	})
	if err != nil {
		log.Printf("[DISCONNECT-ERROR] Error marking host gone for %s: %v", sessionId, err)
		return
	}
	log.Printf("[DISCONNECT] Host left session %s, grace period running", sessionId)
	broadcastRoster(ctx, d, sessionId)
}

func markPlayerGone(ctx context.Context, d *Deps, sessionId, playerId, connectionId string) {
	_, err := d.Store.UpdatePlayer(ctx, sessionId, playerId, func(pl *models.Player) error {
		if pl.ConnectionId != connectionId {
			return nil
		}
		pl.Connected = false
		return nil
	})
	if err != nil {
		log.Printf("[DISCONNECT-ERROR] Error marking player %s gone: %v", playerId, err)
		return
	}
	log.Printf("[DISCONNECT] Player %s left session %s", playerId, sessionId)
	broadcastRoster(ctx, d, sessionId)
}
