package oauth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// decodeJWTPayload base64url-decodes the payload (second) segment of a
// JWT, tolerating missing padding. Any failure (wrong segment count, bad
// base64, bad JSON) returns false rather than an error: claim extraction
// must survive a malformed or absent segment.
func decodeJWTPayload(token string) (map[string]any, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	payload := parts[1]

	var decoded []byte
	var err error
	switch len(payload) % 4 {
	case 0:
		decoded, err = base64.RawURLEncoding.DecodeString(payload)
	default:
		decoded, err = base64.URLEncoding.DecodeString(padBase64(payload))
	}
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(padBase64(payload))
		if err != nil {
			return nil, false
		}
	}

	var claims map[string]any
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

func padBase64(s string) string {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return s
}

// ExtractAccountID reads the chatgpt_account_id claim from one of the
// profile's configured nested claim paths. Returns "" if no path matches
// or any structure along the way is missing/wrong-typed — never raises.
func ExtractAccountID(accessToken string, claimPaths []string) string {
	claims, ok := decodeJWTPayload(accessToken)
	if !ok {
		return ""
	}
	for _, path := range claimPaths {
		nested, ok := claims[path].(map[string]any)
		if !ok {
			continue
		}
		if id, ok := nested["chatgpt_account_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// ExtractExpiry reads the exp claim (seconds since epoch) from the token.
// Returns (0, false) if absent or malformed.
func ExtractExpiry(accessToken string) (int64, bool) {
	claims, ok := decodeJWTPayload(accessToken)
	if !ok {
		return 0, false
	}
	switch v := claims["exp"].(type) {
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
