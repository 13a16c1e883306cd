// Package registry implements the Model Registry: a static+dynamic
// catalog mapping advertised model IDs to backend IDs and feature flags.
package registry

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ReasoningLevel is one of the three (or four, for families that support
// "minimal") effort tiers.
type ReasoningLevel string

const (
	ReasoningLow     ReasoningLevel = "low"
	ReasoningMedium  ReasoningLevel = "medium"
	ReasoningHigh    ReasoningLevel = "high"
	ReasoningMinimal ReasoningLevel = "minimal"
)

// ReasoningBudgets is the fixed effort-to-budget table.
var ReasoningBudgets = map[ReasoningLevel]int{
	ReasoningLow:    8000,
	ReasoningMedium: 16000,
	ReasoningHigh:   32000,
}

// Entry is one model catalog entry.
type Entry struct {
	AdvertisedID        string         `json:"advertised_id"`
	BackendID           string         `json:"backend_id"`
	OwnedBy             string         `json:"owned_by"`
	ContextLength       int            `json:"context_length"`
	MaxCompletionTokens int            `json:"max_completion_tokens"`
	ReasoningLevel      ReasoningLevel `json:"reasoning_level,omitempty"`
	ReasoningBudget     int            `json:"reasoning_budget,omitempty"`
	SupportsVision      bool           `json:"supports_vision"`
	Use1MContext        bool           `json:"use_1m_context"`
	IncludeInListing    bool           `json:"include_in_listing"`

	// BaseURL/APIKey are set only for a user-supplied catalog overlay
	// entry — the gateway uses them to route the entry to
	// the OpenAI-compatible driver instead of Anthropic/Responses.
	// Excluded from the JSON shape: APIKey must never reach /v1/models.
	BaseURL string `json:"-"`
	APIKey  string `json:"-"`

	// SupportsReasoning marks a base entry as eligible for derived
	// {base}-reasoning-{level} variants. Not part of the public
	// JSON shape — it only governs derivation at load time.
	SupportsReasoning bool `json:"-"`
	MinimalVariant    bool `json:"-"`
}

// CatalogEntry is the on-disk shape for a user-supplied overlay entry.
// Only id/base_url/api_key are required; everything else defaults.
type CatalogEntry struct {
	ID                  string `json:"id"`
	BaseURL             string `json:"base_url"`
	APIKey              string `json:"api_key"`
	OwnedBy             string `json:"owned_by"`
	ContextLength       int    `json:"context_length"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	SupportsVision      bool   `json:"supports_vision"`
}

// Registry is an immutable-after-load catalog of Entry, keyed by every
// name that can resolve to it (advertised id, short alias, hidden backend
// alias).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	listing []Entry
}

// New builds an empty Registry. Use LoadBase to seed it from the static
// base specs and LoadCatalogFile to add an optional catalog overlay.
func New() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// addBase registers a base entry, its hidden backend-id alias, and (if
// SupportsReasoning) its derived reasoning variants.
func (r *Registry) addBase(e Entry) {
	r.entries[e.AdvertisedID] = e

	// Hidden alias for the backend id, resolvable but not listed.
	if e.BackendID != "" && e.BackendID != e.AdvertisedID {
		if _, exists := r.entries[e.BackendID]; !exists {
			hidden := e
			hidden.AdvertisedID = e.BackendID
			hidden.IncludeInListing = false
			r.entries[e.BackendID] = hidden
		}
	}

	if e.IncludeInListing {
		r.listing = append(r.listing, e)
	}

	if !e.SupportsReasoning {
		return
	}

	levels := []ReasoningLevel{ReasoningLow, ReasoningMedium, ReasoningHigh}
	if e.MinimalVariant {
		levels = append(levels, ReasoningMinimal)
	}
	for _, level := range levels {
		variant := e
		variant.AdvertisedID = e.AdvertisedID + "-reasoning-" + string(level)
		variant.ReasoningLevel = level
		variant.ReasoningBudget = ReasoningBudgets[level]
		variant.SupportsReasoning = false
		variant.IncludeInListing = e.IncludeInListing
		r.entries[variant.AdvertisedID] = variant
		if variant.IncludeInListing {
			r.listing = append(r.listing, variant)
		}
	}
}

// LoadBase seeds the registry with the static base specs and sorts the
// listing lexicographically.
func (r *Registry) LoadBase(bases []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bases {
		r.addBase(b)
	}
	r.sortListingLocked()
}

func (r *Registry) sortListingLocked() {
	sort.Slice(r.listing, func(i, j int) bool {
		return r.listing[i].AdvertisedID < r.listing[j].AdvertisedID
	})
}

// LoadCatalogFile overlays user-supplied entries from an on-disk JSON
// catalog. Validated: id/base_url/api_key required;
// everything else is filled with defaults.
func (r *Registry) LoadCatalogFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "registry: read catalog file")
	}

	var raw []CatalogEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "registry: decode catalog file")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range raw {
		if err := validateCatalogEntry(c); err != nil {
			return err
		}
		entry := Entry{
			AdvertisedID:        c.ID,
			BackendID:           c.ID,
			OwnedBy:             defaultString(c.OwnedBy, "custom"),
			ContextLength:       defaultInt(c.ContextLength, 128_000),
			MaxCompletionTokens: defaultInt(c.MaxCompletionTokens, 4096),
			SupportsVision:      c.SupportsVision,
			IncludeInListing:    true,
			BaseURL:             c.BaseURL,
			APIKey:              c.APIKey,
		}
		r.addBase(entry)
	}
	r.sortListingLocked()
	return nil
}

func validateCatalogEntry(c CatalogEntry) error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("registry: catalog entry missing required field id")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("registry: catalog entry missing required field base_url")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("registry: catalog entry missing required field api_key")
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// Listing returns the sorted, include_in_listing-only entries for
// GET /v1/models.
func (r *Registry) Listing() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.listing))
	copy(out, r.listing)
	return out
}

// lookup returns the raw entry for an exact name, if any.
func (r *Registry) lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}
