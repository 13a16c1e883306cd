package oauth

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeJWT(t *testing.T, payload map[string]any) string {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	seg := base64.RawURLEncoding.EncodeToString(body)
	return "header." + seg + ".sig"
}

func TestExtractAccountIDResponsesPath(t *testing.T) {
	token := makeJWT(t, map[string]any{
		"https://api.openai.com/auth": map[string]any{
			"chatgpt_account_id": "acct_123",
		},
	})
	id := ExtractAccountID(token, OpenAIProfile.JWTClaimPaths)
	assert.Equal(t, "acct_123", id)
}

func TestExtractAccountIDCodexPath(t *testing.T) {
	token := makeJWT(t, map[string]any{
		"https://claims.chatgpt.com": map[string]any{
			"chatgpt_account_id": "acct_456",
		},
	})
	id := ExtractAccountID(token, OpenAIProfile.JWTClaimPaths)
	assert.Equal(t, "acct_456", id)
}

func TestExtractAccountIDMissingClaimReturnsEmpty(t *testing.T) {
	token := makeJWT(t, map[string]any{"sub": "user"})
	id := ExtractAccountID(token, OpenAIProfile.JWTClaimPaths)
	assert.Equal(t, "", id)
}

func TestExtractAccountIDMalformedTokenNeverPanics(t *testing.T) {
	assert.Equal(t, "", ExtractAccountID("not-a-jwt", OpenAIProfile.JWTClaimPaths))
	assert.Equal(t, "", ExtractAccountID("", OpenAIProfile.JWTClaimPaths))
	assert.Equal(t, "", ExtractAccountID("a.b", OpenAIProfile.JWTClaimPaths))
	assert.Equal(t, "", ExtractAccountID("a.!!!notbase64!!!.c", OpenAIProfile.JWTClaimPaths))
}

func TestExtractExpiry(t *testing.T) {
	token := makeJWT(t, map[string]any{"exp": float64(1700000000)})
	exp, ok := ExtractExpiry(token)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), exp)

	_, ok = ExtractExpiry("garbage")
	assert.False(t, ok)
}
