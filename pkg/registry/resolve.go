package registry

import "strings"

// Resolution is the outcome of resolving an advertised model name.
type Resolution struct {
	BackendID       string
	ReasoningLevel  ReasoningLevel // "" if the name carried no reasoning suffix
	ReasoningBudget int
	Use1MContext    bool
	Entry           Entry
	Neutral         bool // true when the name fell through to the neutral-default case
}

// reasoningMarker is the separator resolution splits on, using the LAST
// occurrence, so a base id that itself contains "-reasoning-" still
// resolves on its own rightmost suffix.
const reasoningMarker = "-reasoning-"

// Resolve maps an advertised model name to a backend id plus feature
// flags. Total on its domain: an unrecognized name never errors, it
// resolves to itself with neutral metadata.
//
// Steps, in order: strip a leading "provider/" handle; exact lookup;
// "-reasoning-{level}" suffix rule; else neutral default.
func (r *Registry) Resolve(name string) Resolution {
	stripped := stripProviderPrefix(name)

	if e, ok := r.lookup(stripped); ok {
		return Resolution{
			BackendID:       e.BackendID,
			ReasoningLevel:  e.ReasoningLevel,
			ReasoningBudget: e.ReasoningBudget,
			Use1MContext:    e.Use1MContext,
			Entry:           e,
		}
	}

	if idx := strings.LastIndex(stripped, reasoningMarker); idx >= 0 {
		base := stripped[:idx]
		level := ReasoningLevel(stripped[idx+len(reasoningMarker):])
		if e, ok := r.lookup(base); ok && budgetKnown(level) {
			e.ReasoningLevel = level
			e.ReasoningBudget = ReasoningBudgets[level]
			return Resolution{
				BackendID:       e.BackendID,
				ReasoningLevel:  level,
				ReasoningBudget: e.ReasoningBudget,
				Use1MContext:    e.Use1MContext,
				Entry:           e,
			}
		}
	}

	return Resolution{
		BackendID: stripped,
		Entry:     Entry{AdvertisedID: name, BackendID: stripped},
		Neutral:   true,
	}
}

// Found reports whether the name matched a known entry (as opposed to
// falling through to the neutral-default case).
func (r Resolution) Found() bool {
	return !r.Neutral
}

func budgetKnown(level ReasoningLevel) bool {
	if level == ReasoningMinimal {
		return true
	}
	_, ok := ReasoningBudgets[level]
	return ok
}

// stripProviderPrefix removes a single leading "provider/" handle (e.g.
// "openai-proxy/gpt-5-codex" → "gpt-5-codex"). Listing() never applies
// this — advertised IDs are listed with their provider-prefixed handle
// intact: strip on resolve, keep on listing.
func stripProviderPrefix(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
