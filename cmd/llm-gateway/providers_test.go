package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jkh/llm-gateway/pkg/oauth"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   oauth.ProviderName
		wantOK bool
	}{
		{name: "anthropic", input: "anthropic", want: oauth.ProviderAnthropic, wantOK: true},
		{name: "chatgpt alias", input: "chatgpt", want: oauth.ProviderOpenAI, wantOK: true},
		{name: "openai alias", input: "openai", want: oauth.ProviderOpenAI, wantOK: true},
		{name: "unknown", input: "gemini", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseProvider(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTokenPathHonorsTokenFileOverrideForAnthropicOnly(t *testing.T) {
	chatgptDefault := tokenPath(oauth.ProviderOpenAI)

	t.Setenv("TOKEN_FILE", "/tmp/custom-tokens.json")
	assert.Equal(t, "/tmp/custom-tokens.json", tokenPath(oauth.ProviderAnthropic))
	assert.Equal(t, chatgptDefault, tokenPath(oauth.ProviderOpenAI))
}
