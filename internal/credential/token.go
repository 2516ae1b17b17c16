package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// tokenClaims are the JWT payload fields the client reads. The token is
// never validated locally; the backend is the authority and rejects
// expired or forged tokens with 401/403.
type tokenClaims struct {
	Sub    string `json:"sub"`
	UserID string `json:"userId"`
}

// Subject extracts the user identifier from a JWT bearer token's
// payload segment, preferring the standard "sub" claim and falling back
// to "userId". The identifier is required by the notification broker's
// connection handshake.
func Subject(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token: expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding token payload: %w", err)
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("parsing token claims: %w", err)
	}

	if claims.Sub != "" {
		return claims.Sub, nil
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}

	return "", fmt.Errorf("token carries no subject claim")
}
