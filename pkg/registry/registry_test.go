package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	r := New()
	r.LoadBase(BaseModels())
	return r
}

func TestListingSortedAndHiddenAliasesExcluded(t *testing.T) {
	r := newTestRegistry()
	listing := r.Listing()
	require.NotEmpty(t, listing)

	for i := 1; i < len(listing); i++ {
		assert.True(t, listing[i-1].AdvertisedID < listing[i].AdvertisedID, "listing must be sorted lexicographically")
	}
	for _, e := range listing {
		assert.NotEqual(t, "claude-sonnet-4-5-20250929", e.AdvertisedID, "backend-id aliases must not appear in the listing")
	}
}

func TestResolveExactMatch(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("sonnet-4-5")
	assert.True(t, res.Found())
	assert.Equal(t, "claude-sonnet-4-5-20250929", res.BackendID)
}

func TestResolveHiddenBackendAlias(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("claude-sonnet-4-5-20250929")
	assert.Equal(t, "claude-sonnet-4-5-20250929", res.BackendID)
}

func TestResolveReasoningVariantUsesFixedBudgetTable(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("sonnet-4-5-reasoning-high")
	assert.Equal(t, "claude-sonnet-4-5-20250929", res.BackendID)
	assert.Equal(t, ReasoningHigh, res.ReasoningLevel)
	assert.Equal(t, 32000, res.ReasoningBudget)
}

func TestResolveMinimalVariantOnlyForFamiliesThatSupportIt(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("gpt-5-codex-reasoning-minimal")
	assert.Equal(t, "gpt-5-codex", res.BackendID)
	assert.Equal(t, ReasoningMinimal, res.ReasoningLevel)

	// sonnet-4-5 derives no minimal variant, but the suffix rule still
	// resolves the level (with no budget) so the Anthropic boundary can
	// reject it with a field-level error instead of treating the whole
	// name as an unknown model.
	minimal := r.Resolve("sonnet-4-5-reasoning-minimal")
	assert.False(t, minimal.Neutral)
	assert.Equal(t, "claude-sonnet-4-5-20250929", minimal.BackendID)
	assert.Equal(t, ReasoningMinimal, minimal.ReasoningLevel)
	assert.Zero(t, minimal.ReasoningBudget)
}

func TestResolveStripsProviderPrefix(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("openai-proxy/sonnet-4-5")
	assert.Equal(t, "claude-sonnet-4-5-20250929", res.BackendID)
}

func TestResolveUnknownNameIsTotalWithNeutralDefaults(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("some-unknown-model-xyz")
	assert.True(t, res.Neutral)
	assert.Equal(t, "some-unknown-model-xyz", res.BackendID)
	assert.Empty(t, res.ReasoningLevel)
}

func TestUse1MContextFlagOnVariant(t *testing.T) {
	r := newTestRegistry()
	res := r.Resolve("sonnet-4-5-1m")
	assert.True(t, res.Use1MContext)
}

func TestLoadCatalogFileOverlayRequiresFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"","base_url":"x","api_key":"y"}]`), 0o600))

	r := newTestRegistry()
	err := r.LoadCatalogFile(path)
	assert.Error(t, err)
}

func TestLoadCatalogFileOverlayAddsEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"local-llama","base_url":"http://localhost:8000","api_key":"sk-local"}]`), 0o600))

	r := newTestRegistry()
	require.NoError(t, r.LoadCatalogFile(path))

	res := r.Resolve("local-llama")
	assert.Equal(t, "local-llama", res.BackendID)
	assert.False(t, res.Neutral)
}

func TestLoadCatalogFileMissingPathIsNotAnError(t *testing.T) {
	r := newTestRegistry()
	assert.NoError(t, r.LoadCatalogFile(filepath.Join(t.TempDir(), "missing.json")))
}
