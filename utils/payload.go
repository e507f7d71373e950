package utils

import "github.com/gin-gonic/gin"

// Payload helpers for socket.io event arguments. Clients send a single JSON
// object per event, which arrives as a map[string]interface{}.

// ParsePayload extracts the first argument as an object, or nil.
func ParsePayload(args []interface{}) map[string]interface{} {
	if len(args) < 1 {
		return nil
	}
	switch payload := args[0].(type) {
	case map[string]interface{}:
		return payload
	case gin.H:
		return payload
	default:
		return nil
	}
}

// GetString reads a string field from a payload.
func GetString(payload map[string]interface{}, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt reads a numeric field from a payload. JSON numbers decode as
// float64; integers sent by Go test fakes are accepted too.
func GetInt(payload map[string]interface{}, key string) (int, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
