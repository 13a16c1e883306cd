package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jkh/llm-gateway/pkg/oauth"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
)

// defaultAnthropicPath and defaultChatGPTPath are the on-disk token
// file locations.
func defaultAnthropicPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".anthropic-claude-max-proxy", "tokens.json")
}

func defaultChatGPTPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatgpt-local", "tokens.json")
}

// tokenPath resolves the on-disk bundle path for a provider, honoring
// the TOKEN_FILE env var / --token-file flag override for Anthropic
// only — ChatGPT credentials have no separate override.
func tokenPath(provider oauth.ProviderName) string {
	if provider == oauth.ProviderAnthropic {
		if override := viper.GetString("token_file"); override != "" {
			return override
		}
		return defaultAnthropicPath()
	}
	return defaultChatGPTPath()
}

func profileFor(provider oauth.ProviderName) oauth.Profile {
	if provider == oauth.ProviderOpenAI {
		return oauth.OpenAIProfile
	}
	return oauth.AnthropicProfile
}

func storeFor(provider oauth.ProviderName) *tokenstore.Store {
	return tokenstore.NewStore(tokenPath(provider))
}

// parseProvider maps the --provider flag value to an oauth.ProviderName,
// accepting the user-facing name ("chatgpt") alongside the profile's
// internal name ("openai").
func parseProvider(s string) (oauth.ProviderName, bool) {
	switch s {
	case "anthropic":
		return oauth.ProviderAnthropic, true
	case "chatgpt", "openai":
		return oauth.ProviderOpenAI, true
	default:
		return "", false
	}
}
