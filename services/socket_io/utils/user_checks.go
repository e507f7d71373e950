package socketio_utils

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zishang520/socket.io/v2/socket"
)

// VerifyHostConnection inspects the handshake auth data for a bearer token
// and returns the host username it carries. Connections without auth data are
// fine, they are anonymous players; only a token that is present but invalid
// is an error.
func VerifyHostConnection(client *socket.Socket) (username string, err error) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		return "", nil
	}
	raw, exists := authData["authorization"].(string)
	if !exists || raw == "" {
		return "", nil
	}

	token := strings.TrimPrefix(raw, "Bearer ")
	username, err = decodeHostToken(token)
	if err != nil {
		log.Printf("[AUTH-ERROR] Rejecting handshake token: %v", err)
		return "", fmt.Errorf("invalid authorization token, set it as 'Bearer <jwt>'")
	}
	return username, nil
}

// decodeHostToken validates an HMAC-signed JWT and extracts its subject.
func decodeHostToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}
