package convert

// ToOpenAIResponse converts a non-streaming Anthropic response into the
// OpenAI Chat Completions response shape.
func ToOpenAIResponse(resp *AnthropicResponse) ChatCompletionResponse {
	msg := ChatChoiceMsg{Role: "assistant"}
	var textBuf, reasoningBuf string

	for _, block := range resp.Content {
		switch block.Type {
		case BlockText:
			textBuf += block.Text
		case BlockToolUse:
			args := "{}"
			if len(block.ToolInput) > 0 {
				args = string(block.ToolInput)
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   block.ToolUseID,
				Type: "function",
				Function: ToolCallFunc{
					Name:      block.ToolName,
					Arguments: args,
				},
			})
		case BlockThinking:
			reasoningBuf += block.Thinking
			msg.ThinkingBlocks = append(msg.ThinkingBlocks, ThinkingBlock{
				Type:      "thinking",
				Thinking:  block.Thinking,
				Signature: block.Signature,
			})
		case BlockRedactedThinking:
			msg.ThinkingBlocks = append(msg.ThinkingBlocks, ThinkingBlock{
				Type:      "redacted_thinking",
				Signature: block.Signature,
			})
		}
	}

	msg.Content = textBuf
	msg.ReasoningContent = reasoningBuf

	usage := ChatUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	if reasoningBuf != "" {
		usage.CompletionDetail = &CompletionTokenDetail{ReasoningTokens: len(reasoningBuf) / 4}
	}

	return ChatCompletionResponse{
		ID:     resp.ID,
		Object: "chat.completion",
		Model:  resp.Model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: mapStopReason(resp.StopReason),
		}},
		Usage: usage,
	}
}

// mapStopReason maps Anthropic stop reasons onto OpenAI finish reasons.
func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	default:
		return "stop"
	}
}
