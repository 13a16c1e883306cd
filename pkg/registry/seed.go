package registry

// BaseModels is the static seed of the model catalog. Each
// entry here may expand into several derived entries (reasoning variants,
// a hidden backend-id alias) once passed through LoadBase.
func BaseModels() []Entry {
	return []Entry{
		{
			AdvertisedID:        "sonnet-4-5",
			BackendID:           "claude-sonnet-4-5-20250929",
			OwnedBy:             "anthropic",
			ContextLength:       200_000,
			MaxCompletionTokens: 64_000,
			SupportsVision:      true,
			IncludeInListing:    true,
			SupportsReasoning:   true,
		},
		{
			AdvertisedID:        "sonnet-4-5-1m",
			BackendID:           "claude-sonnet-4-5-20250929",
			OwnedBy:             "anthropic",
			ContextLength:       1_000_000,
			MaxCompletionTokens: 64_000,
			SupportsVision:      true,
			Use1MContext:        true,
			IncludeInListing:    true,
			SupportsReasoning:   true,
		},
		{
			AdvertisedID:        "opus-4-1",
			BackendID:           "claude-opus-4-1-20250805",
			OwnedBy:             "anthropic",
			ContextLength:       200_000,
			MaxCompletionTokens: 32_000,
			SupportsVision:      true,
			IncludeInListing:    true,
			SupportsReasoning:   true,
		},
		{
			AdvertisedID:        "haiku-4-5",
			BackendID:           "claude-haiku-4-5-20251001",
			OwnedBy:             "anthropic",
			ContextLength:       200_000,
			MaxCompletionTokens: 16_000,
			SupportsVision:      true,
			IncludeInListing:    true,
		},
		// ChatGPT Codex family: routed through the Responses driver,
		// never the Anthropic shaper, so "minimal" reasoning is valid
		// here even though the Anthropic budget table rejects it.
		{
			AdvertisedID:        "gpt-5-codex",
			BackendID:           "gpt-5-codex",
			OwnedBy:             "openai",
			ContextLength:       400_000,
			MaxCompletionTokens: 128_000,
			IncludeInListing:    true,
			SupportsReasoning:   true,
			MinimalVariant:      true,
		},
	}
}
