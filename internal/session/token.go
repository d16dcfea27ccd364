package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/manash/bizforge/pkg/models"
)

// Claims are the identity fields read from a token payload.
type Claims struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// DecodeClaims reads the payload segment of a JWT-shaped token.
//
// The signature is NOT verified. A decoded session is identity context for
// personalization only and must sit behind server-side verification before
// anything trusts it.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, &models.DecodeError{Reason: "token has no payload segment"}
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, &models.DecodeError{Reason: "payload is not base64url", Err: err}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, &models.DecodeError{Reason: "payload is not JSON", Err: err}
	}
	if claims.Subject == "" {
		return nil, &models.DecodeError{Reason: "payload has no subject"}
	}
	return &claims, nil
}
