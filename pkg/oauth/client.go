package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
)

// Client builds authorize URLs and performs code exchange / refresh for one
// issuer Profile.
type Client struct {
	Profile    Profile
	HTTPClient *http.Client
}

// NewClient returns a Client for the given profile using a sane default
// HTTP timeout.
func NewClient(profile Profile) *Client {
	return &Client{
		Profile:    profile,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BuildAuthorizeURL builds the authorize URL for an interactive PKCE flow.
// The state parameter equals the verifier, mirroring the upstream's
// accepted convention.
func (c *Client) BuildAuthorizeURL(challenge, state string, longTerm bool) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.Profile.ClientID)
	q.Set("redirect_uri", c.Profile.RedirectURI)
	scope := c.Profile.Scope
	if longTerm && c.Profile.LongTermScope != "" {
		scope = c.Profile.LongTermScope
	}
	q.Set("scope", scope)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", state)
	for k, v := range c.Profile.ExtraAuthParams {
		q.Set(k, v)
	}
	return c.Profile.AuthorizeURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Exchange trades an authorization code plus PKCE verifier for a token
// bundle. For Anthropic, the wire code format is "code#state" (kept as the
// provider expects); for OpenAI it's the raw code. longTerm requests an
// Anthropic long-term token (expires_in forced to one year server-side via
// an explicit field, and no refresh token is expected back).
func (c *Client) Exchange(ctx context.Context, code, verifier string, longTerm bool) (*tokenstore.Bundle, error) {
	payload := map[string]any{
		"grant_type":    "authorization_code",
		"client_id":     c.Profile.ClientID,
		"redirect_uri":  c.Profile.RedirectURI,
		"code_verifier": verifier,
	}
	switch c.Profile.Name {
	case ProviderAnthropic:
		payload["code"] = code
		if state := extractAnthropicState(code); state != "" {
			payload["state"] = state
		}
		if longTerm {
			payload["expires_in"] = longTermExpiresIn
		}
	case ProviderOpenAI:
		payload["code"] = code
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, gwerrors.Internal("oauth: marshal exchange payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Profile.TokenURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, gwerrors.Internal("oauth: build exchange request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doTokenRequest(ctx, req, longTerm)
}

// extractAnthropicState splits the "code#state" wire convention; if
// there's no '#', the whole string is the code and no explicit state is
// sent (the verifier alone authenticates the exchange).
func extractAnthropicState(code string) string {
	if idx := strings.Index(code, "#"); idx >= 0 {
		return code[idx+1:]
	}
	return ""
}

// Refresh exchanges a refresh token for a new access token. Long-term
// tokens have no refresh token and MUST NOT be refreshed — callers should
// check that before calling Refresh; Refresh itself fails loudly if given
// an empty refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*tokenstore.Bundle, error) {
	if refreshToken == "" {
		return nil, gwerrors.AuthExpired("oauth: cannot refresh a long-term token", nil)
	}

	payload := map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     c.Profile.ClientID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, gwerrors.Internal("oauth: marshal refresh payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Profile.TokenURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, gwerrors.Internal("oauth: build refresh request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doTokenRequest(ctx, req, false)
}

func (c *Client) doTokenRequest(ctx context.Context, req *http.Request, longTerm bool) (*tokenstore.Bundle, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("oauth: token request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("oauth: read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, gwerrors.UpstreamStatus(resp.StatusCode, "oauth: token endpoint returned "+resp.Status)
	}

	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, gwerrors.MalformedUpstream("oauth: decode token response", err)
	}
	if tr.AccessToken == "" {
		return nil, gwerrors.MalformedUpstream("oauth: token response missing access_token", nil)
	}

	now := time.Now()
	expiresIn := tr.ExpiresIn
	if longTerm && expiresIn == 0 {
		expiresIn = longTermExpiresIn
	}

	bundle := &tokenstore.Bundle{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		IDToken:      tr.IDToken,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second).Unix(),
		LastRefresh:  now.Format(time.RFC3339),
	}
	if bundle.RefreshToken == "" {
		bundle.TokenType = tokenstore.TokenTypeLongTerm
	} else {
		bundle.TokenType = tokenstore.TokenTypeOAuthFlow
	}

	bundle.AccountID = ExtractAccountID(bundle.AccessToken, c.Profile.JWTClaimPaths)

	return bundle, nil
}

// NeedsRefresh reports whether a bundle is due: refresh when the access
// token's exp claim is within 5 minutes, or last_refresh is at least 55
// minutes ago. Long-term tokens are never refreshed.
func NeedsRefresh(bundle *tokenstore.Bundle, now time.Time) bool {
	if bundle.TokenType == tokenstore.TokenTypeLongTerm {
		return false
	}
	if exp, ok := ExtractExpiry(bundle.AccessToken); ok {
		if time.Unix(exp, 0).Sub(now) <= refreshNearExpiry {
			return true
		}
	}
	if bundle.LastRefresh != "" {
		if t, err := time.Parse(time.RFC3339, bundle.LastRefresh); err == nil {
			if now.Sub(t) >= refreshStale {
				return true
			}
		}
	}
	return false
}
