package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/utils"

	"github.com/redis/go-redis/v9"
)

// Attempts before giving up on a WATCH transaction that keeps losing.
const maxTxRetries = 5

// RedisStore keeps sessions in a shared Redis so several nodes can serve the
// same rooms. Values are JSON documents; every mutating operation refreshes
// the 24h TTL. UpdateSession/UpdatePlayer run under WATCH so the phase guard
// check-and-update is atomic across processes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionId string) string {
	return fmt.Sprintf("session:%s", sessionId)
}

func playersKey(sessionId string) string {
	return fmt.Sprintf("session:%s:players", sessionId)
}

func roomCodeKey(roomCode string) string {
	return fmt.Sprintf("room_code:%s", roomCode)
}

func (r *RedisStore) CreateSession(ctx context.Context, session *models.LiveSession) error {
	code := ""
	for attempt := 0; attempt < game_constants.ROOM_CODE_ATTEMPTS; attempt++ {
		candidate := utils.GenerateRoomCode()
		ok, err := r.client.SetNX(ctx, roomCodeKey(candidate), session.Id, game_constants.SESSION_TTL).Result()
		if err != nil {
			return fmt.Errorf("error reserving room code: %w", err)
		}
		if ok {
			code = candidate
			break
		}
	}
	if code == "" {
		return ErrCodeExhausted
	}

	session.RoomCode = code
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.Id), data, game_constants.SESSION_TTL).Err(); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, sessionId string) (*models.LiveSession, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionId)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	var session models.LiveSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error unmarshaling session: %w", err)
	}
	return &session, nil
}

func (r *RedisStore) GetSessionByCode(ctx context.Context, roomCode string) (*models.LiveSession, error) {
	sessionId, err := r.client.Get(ctx, roomCodeKey(utils.NormalizeRoomCode(roomCode))).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error resolving room code: %w", err)
	}
	return r.GetSession(ctx, sessionId)
}

func (r *RedisStore) UpdateSession(ctx context.Context, sessionId string, mutate func(*models.LiveSession) error) (*models.LiveSession, error) {
	key := sessionKey(sessionId)
	var updated *models.LiveSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		var session models.LiveSession
		if err := json.Unmarshal(data, &session); err != nil {
			return err
		}
		if err := mutate(&session); err != nil {
			return err
		}
		out, err := json.Marshal(&session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, game_constants.SESSION_TTL)
			pipe.Expire(ctx, playersKey(sessionId), game_constants.SESSION_TTL)
			pipe.Expire(ctx, roomCodeKey(session.RoomCode), game_constants.SESSION_TTL)
			return nil
		})
		if err == nil {
			updated = &session
		}
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("session %s update lost %d transactions in a row", sessionId, maxTxRetries)
}

func (r *RedisStore) DeleteSession(ctx context.Context, sessionId string) error {
	session, err := r.GetSession(ctx, sessionId)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Del(ctx, sessionKey(sessionId))
	pipe.Del(ctx, playersKey(sessionId))
	pipe.Del(ctx, roomCodeKey(session.RoomCode))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

func (r *RedisStore) ListSessions(ctx context.Context) ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	iter := r.client.Scan(ctx, 0, "session:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// Skip the player hashes
		if strings.HasSuffix(key, ":players") {
			continue
		}
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		} else if err != nil {
			return nil, fmt.Errorf("error listing sessions: %w", err)
		}
		var session models.LiveSession
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning sessions: %w", err)
	}
	return sessions, nil
}

func (r *RedisStore) AddPlayer(ctx context.Context, sessionId string, player *models.Player) error {
	exists, err := r.client.Exists(ctx, sessionKey(sessionId)).Result()
	if err != nil {
		return fmt.Errorf("error checking session: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("error marshaling player: %w", err)
	}
	added, err := r.client.HSetNX(ctx, playersKey(sessionId), player.PlayerId, data).Result()
	if err != nil {
		return fmt.Errorf("error saving player: %w", err)
	}
	if !added {
		return ErrAlreadyExists
	}
	r.client.Expire(ctx, playersKey(sessionId), game_constants.SESSION_TTL)
	return nil
}

func (r *RedisStore) GetPlayers(ctx context.Context, sessionId string) ([]models.Player, error) {
	exists, err := r.client.Exists(ctx, sessionKey(sessionId)).Result()
	if err != nil {
		return nil, fmt.Errorf("error checking session: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	raw, err := r.client.HGetAll(ctx, playersKey(sessionId)).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting players: %w", err)
	}
	players := make([]models.Player, 0, len(raw))
	for _, data := range raw {
		var p models.Player
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("error unmarshaling player: %w", err)
		}
		players = append(players, p)
	}
	sortPlayers(players)
	return players, nil
}

func (r *RedisStore) GetPlayer(ctx context.Context, sessionId, playerId string) (*models.Player, error) {
	data, err := r.client.HGet(ctx, playersKey(sessionId), playerId).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting player: %w", err)
	}
	var p models.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error unmarshaling player: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) UpdatePlayer(ctx context.Context, sessionId, playerId string, mutate func(*models.Player) error) (*models.Player, error) {
	key := playersKey(sessionId)
	var updated *models.Player

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, playerId).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		var p models.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if err := mutate(&p); err != nil {
			return err
		}
		out, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, playerId, out)
			pipe.Expire(ctx, key, game_constants.SESSION_TTL)
			return nil
		})
		if err == nil {
			updated = &p
		}
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("player %s update lost %d transactions in a row", playerId, maxTxRetries)
}

func (r *RedisStore) RemovePlayer(ctx context.Context, sessionId, playerId string) error {
	removed, err := r.client.HDel(ctx, playersKey(sessionId), playerId).Result()
	if err != nil {
		return fmt.Errorf("error removing player: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
