package gateway

import (
	"fmt"
	"net/http"

	"github.com/jkh/llm-gateway/pkg/sse"
)

// prepareSSEResponse sets the headers common to every streaming response
// (Cache-Control: no-cache, Connection: keep-alive) and returns the
// http.Flusher needed to push each frame as it's produced.
func prepareSSEResponse(w http.ResponseWriter) http.Flusher {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	return flusher
}

// writeRawSSEEvent forwards one already-decoded upstream frame verbatim —
// used by the Anthropic-native /v1/messages path, which never leaves the
// Anthropic dialect.
func writeRawSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev sse.Event) {
	if ev.Event != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Event)
	}
	fmt.Fprintf(w, "data: %s\n\n", ev.Data)
	if flusher != nil {
		flusher.Flush()
	}
}

// writeJSONSSEEvent writes one data-only SSE frame carrying v as its JSON
// payload — the shape the OpenAI dialect's chat.completion.chunk stream
// uses (no "event:" line).
func writeJSONSSEEvent(w http.ResponseWriter, flusher http.Flusher, data []byte) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if flusher != nil {
		flusher.Flush()
	}
}

// writeSSEDone writes the OpenAI dialect's terminal `data: [DONE]` frame.
func writeSSEDone(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}
