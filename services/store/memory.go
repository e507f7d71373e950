package store

import (
	"context"
	"sync"

	game_constants "Trivio/constants/game"
	models "Trivio/models/redis"
	"Trivio/utils"
)

// MemoryStore keeps sessions in a process-local map. The outer lock guards
// the maps and the code index; each session carries its own lock so that
// UpdateSession/UpdatePlayer are atomic per session without serializing
// unrelated sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	byCode   map[string]string // room code -> session id
}

type memorySession struct {
	mu      sync.Mutex
	session models.LiveSession
	players map[string]*models.Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		byCode:   make(map[string]string),
	}
}

func (m *MemoryStore) CreateSession(ctx context.Context, session *models.LiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := ""
	for attempt := 0; attempt < game_constants.ROOM_CODE_ATTEMPTS; attempt++ {
		candidate := utils.GenerateRoomCode()
		if _, taken := m.byCode[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return ErrCodeExhausted
	}

	session.RoomCode = code
	m.sessions[session.Id] = &memorySession{
		session: *session,
		players: make(map[string]*models.Player),
	}
	m.byCode[code] = session.Id
	return nil
}

func (m *MemoryStore) get(sessionId string) (*memorySession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[sessionId]
	return entry, ok
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionId string) (*models.LiveSession, error) {
	entry, ok := m.get(sessionId)
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	copy := entry.session
	return &copy, nil
}

func (m *MemoryStore) GetSessionByCode(ctx context.Context, roomCode string) (*models.LiveSession, error) {
	m.mu.RLock()
	sessionId, ok := m.byCode[utils.NormalizeRoomCode(roomCode)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetSession(ctx, sessionId)
}

func (m *MemoryStore) UpdateSession(ctx context.Context, sessionId string, mutate func(*models.LiveSession) error) (*models.LiveSession, error) {
	entry, ok := m.get(sessionId)
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	working := entry.session
	if err := mutate(&working); err != nil {
		return nil, err
	}
	entry.session = working
	copy := working
	return &copy, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, sessionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[sessionId]
	if !ok {
		return ErrNotFound
	}
	delete(m.byCode, entry.session.RoomCode)
	delete(m.sessions, sessionId)
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]models.LiveSession, error) {
	m.mu.RLock()
	entries := make([]*memorySession, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sessions := make([]models.LiveSession, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		sessions = append(sessions, entry.session)
		entry.mu.Unlock()
	}
	return sessions, nil
}

func (m *MemoryStore) AddPlayer(ctx context.Context, sessionId string, player *models.Player) error {
	entry, ok := m.get(sessionId)
	if !ok {
		return ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if _, exists := entry.players[player.PlayerId]; exists {
		return ErrAlreadyExists
	}
	copy := *player
	entry.players[player.PlayerId] = &copy
	return nil
}

func (m *MemoryStore) GetPlayers(ctx context.Context, sessionId string) ([]models.Player, error) {
	entry, ok := m.get(sessionId)
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	players := make([]models.Player, 0, len(entry.players))
	for _, p := range entry.players {
		players = append(players, *p)
	}
	sortPlayers(players)
	return players, nil
}

func (m *MemoryStore) GetPlayer(ctx context.Context, sessionId, playerId string) (*models.Player, error) {
	entry, ok := m.get(sessionId)
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	p, exists := entry.players[playerId]
	if !exists {
		return nil, ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MemoryStore) UpdatePlayer(ctx context.Context, sessionId, playerId string, mutate func(*models.Player) error) (*models.Player, error) {
	entry, ok := m.get(sessionId)
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	p, exists := entry.players[playerId]
	if !exists {
		return nil, ErrNotFound
	}
	working := *p
	if err := mutate(&working); err != nil {
		return nil, err
	}
	*p = working
	copy := working
	return &copy, nil
}

func (m *MemoryStore) RemovePlayer(ctx context.Context, sessionId, playerId string) error {
	entry, ok := m.get(sessionId)
	if !ok {
		return ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if _, exists := entry.players[playerId]; !exists {
		return ErrNotFound
	}
	delete(entry.players, playerId)
	return nil
}
