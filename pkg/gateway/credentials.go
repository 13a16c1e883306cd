// Package gateway implements the HTTP front door: routing inbound
// requests to the shaping/conversion pipeline and the right upstream
// driver, per-request logging and error-to-status translation.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/logger"
	"github.com/jkh/llm-gateway/pkg/oauth"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
)

// CredentialManager resolves a valid, non-expired access token for one
// provider, refreshing when the stored bundle is due. One
// instance per provider; the gateway holds two (Anthropic, OpenAI).
type CredentialManager struct {
	store  *tokenstore.Store
	client *oauth.Client

	mu sync.Mutex
}

// NewCredentialManager builds a manager backed by store and an OAuth
// client for profile.
func NewCredentialManager(store *tokenstore.Store, profile oauth.Profile) *CredentialManager {
	return &CredentialManager{store: store, client: oauth.NewClient(profile)}
}

// Get returns a valid bundle, refreshing first if the stored one is due
// per the refresh heuristic. A single in-flight refresh is serialized per
// manager so concurrent requests don't each trigger their own refresh
// call against the token endpoint.
func (m *CredentialManager) Get(ctx context.Context) (*tokenstore.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bundle, err := m.store.Load(ctx)
	if err != nil {
		return nil, gwerrors.Internal("credentials: load bundle", err)
	}
	if bundle == nil {
		return nil, gwerrors.AuthAbsent("OAuth token absent; please authenticate")
	}

	if !oauth.NeedsRefresh(bundle, time.Now()) {
		return bundle, nil
	}

	if bundle.TokenType == tokenstore.TokenTypeLongTerm {
		if bundle.Expired(time.Now()) {
			return nil, gwerrors.AuthExpired("long-term token expired; please re-authenticate", nil)
		}
		return bundle, nil
	}

	refreshed, err := m.client.Refresh(ctx, bundle.RefreshToken)
	if err != nil {
		if ge, ok := gwerrors.As(err); ok && ge.Kind == gwerrors.KindUpstreamStatus {
			return nil, gwerrors.AuthExpired("OAuth refresh failed", err)
		}
		return nil, err
	}

	if err := m.store.Save(ctx, refreshed); err != nil {
		logger.G(ctx).WithError(err).Warn("credentials: failed to persist refreshed bundle")
	}
	return refreshed, nil
}
