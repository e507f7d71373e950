package socketio_types

import (
	"log"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// Conn is the slice of a client connection the game core consumes: identity,
// emit-to-one, and group membership. *socket.Socket satisfies it; tests use
// fakes.
type Conn interface {
	Id() socket.SocketId
	Emit(event string, args ...interface{}) error
	Join(rooms ...socket.Room)
	Leave(room socket.Room)
}

// Broadcaster is the group-emit primitive the core consumes from the
// transport. Implemented by SocketServer.
type Broadcaster interface {
	EmitToGroup(group string, event string, payload interface{})
	EmitToConnection(connectionId string, event string, payload interface{})
	LeaveGroup(connectionId string, group string)
}

// SocketServer wraps the socket.io server with a connection map so the core
// can emit to a single connection id without holding socket references.
type SocketServer struct {
	Sio_server *socket.Server

	mutex       sync.RWMutex
	connections map[socket.SocketId]*socket.Socket
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		connections: make(map[socket.SocketId]*socket.Socket),
	}
}

func (s *SocketServer) AddConnection(client *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.connections[client.Id()] = client
}

func (s *SocketServer) RemoveConnection(id socket.SocketId) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.connections, id)
}

func (s *SocketServer) GetConnection(id socket.SocketId) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	client, exists := s.connections[id]
	return client, exists
}

// EmitToGroup broadcasts an event to every connection in a group.
func (s *SocketServer) EmitToGroup(group string, event string, payload interface{}) {
	if err := s.Sio_server.To(socket.Room(group)).Emit(event, payload); err != nil {
		log.Printf("[EMIT-ERROR] Broadcast of %s to group %s failed: %v", event, group, err)
	}
}

// EmitToConnection emits an event to one connection. Unknown ids are dropped
// silently: the client disconnected between lookup and emit.
func (s *SocketServer) EmitToConnection(connectionId string, event string, payload interface{}) {
	client, exists := s.GetConnection(socket.SocketId(connectionId))
	if !exists {
		return
	}
	if err := client.Emit(event, payload); err != nil {
		log.Printf("[EMIT-ERROR] Emit of %s to %s failed: %v", event, connectionId, err)
	}
}

// LeaveGroup detaches one connection from a group, e.g. after a kick.
func (s *SocketServer) LeaveGroup(connectionId string, group string) {
	client, exists := s.GetConnection(socket.SocketId(connectionId))
	if !exists {
		return
	}
	client.Leave(socket.Room(group))
}
