// Package oauth implements the two OAuth-with-PKCE issuer profiles used to
// authenticate against Anthropic's and OpenAI's subscription backends.
package oauth

import "time"

// ProviderName identifies one of the two issuer profiles.
type ProviderName string

const (
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOpenAI    ProviderName = "openai"
)

// Profile parameterizes one OAuth issuer: endpoints, client identity,
// scopes, and the claim paths used to pull an account id out of the
// access token.
type Profile struct {
	Name ProviderName

	AuthorizeURL string
	TokenURL     string
	ClientID     string
	RedirectURI  string

	Scope         string
	LongTermScope string // empty if the provider has no separate long-term scope

	// ExtraAuthParams are appended to every authorize URL for this profile.
	ExtraAuthParams map[string]string

	// JWTClaimPaths are tried in order to extract the account id from the
	// access token's JWT payload.
	JWTClaimPaths []string
}

// AnthropicProfile is the Claude Max/Pro subscription issuer.
var AnthropicProfile = Profile{
	Name:          ProviderAnthropic,
	AuthorizeURL:  "https://claude.ai/oauth/authorize",
	TokenURL:      "https://console.anthropic.com/v1/oauth/token",
	ClientID:      "9d1c250a-e61b-44d9-88ed-5944d1962f5e",
	RedirectURI:   "https://console.anthropic.com/oauth/code/callback",
	Scope:         "org:create_api_key user:profile user:inference",
	LongTermScope: "user:inference",
	ExtraAuthParams: map[string]string{
		"code": "true",
	},
}

// OpenAIProfile is the ChatGPT Plus/Pro subscription issuer.
var OpenAIProfile = Profile{
	Name:         ProviderOpenAI,
	AuthorizeURL: "https://auth.openai.com/oauth/authorize",
	TokenURL:     "https://auth.openai.com/oauth/token",
	ClientID:     "app_EMoamEEZ73f0CkXaXp7hrann",
	RedirectURI:  "http://localhost:1455/auth/callback",
	Scope:        "openid profile email offline_access",
	ExtraAuthParams: map[string]string{
		"id_token_add_organizations": "true",
		"codex_cli_simplified_flow":  "true",
	},
	JWTClaimPaths: []string{
		"https://api.openai.com/auth",
		"https://claims.chatgpt.com",
	},
}

// longTermExpiresIn is sent for the Anthropic long-term-token exchange.
const longTermExpiresIn = 31_536_000 // seconds, ~1 year

// refreshNearExpiry is the refresh heuristic's window: refresh when the JWT's
// exp claim is within this window of now.
const refreshNearExpiry = 5 * time.Minute

// refreshStale mirrors "or last_refresh >= 55 minutes ago".
const refreshStale = 55 * time.Minute
