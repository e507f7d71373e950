package redis

import "time"

// ChatMessage represents a message relayed through a chat channel.
type ChatMessage struct {
	Channel   string    `json:"channel"`
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
