// Package tokenstore persists OAuth token bundles for each upstream
// provider on local disk with owner-only permissions.
package tokenstore

import (
	"time"

	"github.com/pkg/errors"
)

// TokenType distinguishes an interactive OAuth-flow bundle (paired with a
// refresh token) from a long-term token issued for headless use.
type TokenType string

const (
	TokenTypeOAuthFlow TokenType = "oauth_flow"
	TokenTypeLongTerm  TokenType = "long_term"
)

// Bundle is the persisted shape of one provider's credentials.
type Bundle struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	ExpiresAt    int64     `json:"expires_at"`
	TokenType    TokenType `json:"token_type"`
	LastRefresh  string    `json:"last_refresh"`
}

// Validate checks the invariants from the data model: access_token is
// required; long-term bundles must not carry a refresh token; oauth-flow
// bundles must.
func (b *Bundle) Validate() error {
	if b.AccessToken == "" {
		return errors.New("bundle: access_token must be non-empty")
	}
	switch b.TokenType {
	case TokenTypeLongTerm:
		if b.RefreshToken != "" {
			return errors.New("bundle: long_term tokens must not carry a refresh_token")
		}
	case TokenTypeOAuthFlow:
		if b.RefreshToken == "" {
			return errors.New("bundle: oauth_flow tokens must carry a refresh_token")
		}
	default:
		return errors.Errorf("bundle: unknown token_type %q", b.TokenType)
	}
	return nil
}

// expirySkew is subtracted from the stored expiry before comparing against
// "now" so a token that is about to expire mid-request is treated as
// already expired.
const expirySkew = 5 * time.Second

// Expired reports whether the bundle is expired as of now, applying the
// 5-second leading skew.
func (b *Bundle) Expired(now time.Time) bool {
	return now.After(time.Unix(b.ExpiresAt, 0).Add(-expirySkew))
}

// Status is the shape returned by Store.Status.
type Status struct {
	Present       bool
	Expired       bool
	ExpiresAt     int64
	TimeRemaining time.Duration
	Type          TokenType
}
