package convert

// ToAnthropicRequest lowers a normalized Envelope into the Anthropic
// wire shape the request shaper operates on — the normalized turn shape
// already matches `{role, content}` exactly, so this is a direct field
// copy with no further transformation.
func (e Envelope) ToAnthropicRequest(model string, maxTokens int64, stream bool) *AnthropicRequest {
	req := &AnthropicRequest{
		Model:     model,
		System:    e.System,
		MaxTokens: maxTokens,
		Stream:    stream,
	}
	req.Messages = make([]AnthropicMessage, 0, len(e.Turns))
	for _, t := range e.Turns {
		req.Messages = append(req.Messages, AnthropicMessage{Role: string(t.Role), Content: t.Content})
	}
	return req
}
