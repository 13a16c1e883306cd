// Package upstream implements the drivers that sign and send requests to
// the three upstream families: Anthropic Messages, generic
// OpenAI-compatible Chat Completions, and the ChatGPT/Codex Responses
// API. Every driver shares the same connection-timeout and
// error-to-synthetic-frame machinery, built here once.
package upstream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/jkh/llm-gateway/pkg/sse"
)

// Drivers own their connection timeouts, independent of whatever
// deadline the inbound request carries. Configure overrides the defaults
// from the CLI's environment-variable bindings (CONNECT_TIMEOUT,
// READ_TIMEOUT, REQUEST_TIMEOUT, STREAM_TIMEOUT) before the first driver
// is constructed.
var (
	ConnectTimeout = 10 * time.Second
	ReadTimeout    = 60 * time.Second
	RequestTimeout = 120 * time.Second
	StreamTimeout  = 600 * time.Second
)

// Configure overrides the package's timeout defaults. A zero value leaves
// the corresponding timeout unchanged.
func Configure(connect, read, request, stream time.Duration) {
	if connect > 0 {
		ConnectTimeout = connect
	}
	if read > 0 {
		ReadTimeout = read
	}
	if request > 0 {
		RequestTimeout = request
	}
	if stream > 0 {
		StreamTimeout = stream
	}
}

// NewHTTPClient builds the *http.Client a driver uses for its upstream
// calls, with the connect timeout wired into the transport. The client
// itself carries no timeout: each driver's Invoke applies RequestTimeout
// through its context, and EventStream enforces the stream budgets.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: ConnectTimeout}).DialContext,
	}
	return &http.Client{Transport: transport}
}

// errorFrame is the one synthetic SSE frame a driver emits on upstream
// failure, matching the shape OpenAI/Anthropic clients already expect
// from an `event: error` frame.
func errorFrame(message string) sse.Event {
	return sse.Event{Event: "error", Data: fmt.Sprintf(`{"error": %q}`, message)}
}

// EventStream iterates the frames of one upstream SSE response, applying
// the read-timeout and total-stream-timeout budgets and translating
// transport failures into a single synthetic error frame. It is
// not safe for concurrent use.
type EventStream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	parser   sse.Parser
	deadline time.Time
	pending  []sse.Event
	done     bool
	errSent  bool
}

// NewEventStream wraps body (already confirmed to be a 200 text/event-stream
// response) in an EventStream that enforces ReadTimeout between chunks and
// StreamTimeout for the whole stream.
func NewEventStream(body io.ReadCloser) *EventStream {
	s := bufio.NewScanner(body)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	s.Split(bufio.ScanLines)
	return &EventStream{
		body:     body,
		scanner:  s,
		deadline: time.Now().Add(StreamTimeout),
	}
}

// Next returns the next parsed event, or false once the stream has ended
// (cleanly, by timeout, or by transport error — a synthetic error frame
// is returned exactly once in the latter two cases before Next reports
// false on the following call).
func (s *EventStream) Next(ctx context.Context) (sse.Event, bool) {
	for len(s.pending) == 0 && !s.done {
		s.fill(ctx)
	}
	if len(s.pending) == 0 {
		return sse.Event{}, false
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, true
}

func (s *EventStream) fill(ctx context.Context) {
	if time.Now().After(s.deadline) {
		s.terminate(fmt.Sprintf("Stream timeout after %ds", int(StreamTimeout.Seconds())))
		return
	}

	type lineResult struct {
		line string
		err  error
		ok   bool
	}
	lineCh := make(chan lineResult, 1)
	go func() {
		ok := s.scanner.Scan()
		lineCh <- lineResult{line: s.scanner.Text(), err: s.scanner.Err(), ok: ok}
	}()

	select {
	case <-ctx.Done():
		s.body.Close()
		s.done = true
		return
	case <-time.After(ReadTimeout):
		s.terminate(fmt.Sprintf("Stream timeout after %ds", int(ReadTimeout.Seconds())))
		return
	case res := <-lineCh:
		if !res.ok {
			if res.err != nil && res.err != io.EOF {
				s.terminate(fmt.Sprintf("Connection closed: %v", res.err))
				return
			}
			s.pending = append(s.pending, s.parser.Flush()...)
			s.done = true
			s.body.Close()
			return
		}
		s.pending = append(s.pending, s.parser.Feed(res.line+"\n")...)
	}
}

func (s *EventStream) terminate(message string) {
	s.body.Close()
	s.done = true
	if !s.errSent {
		s.pending = append(s.pending, errorFrame(message))
		s.errSent = true
	}
}

// Close releases the underlying connection. Safe to call after the
// stream has already ended, or on a stream with no live connection at
// all (one built by singleErrorEvent).
func (s *EventStream) Close() error {
	if s.body == nil {
		return nil
	}
	return s.body.Close()
}

// singleErrorEvent builds a one-shot EventStream already in its terminal
// state, wrapping message as a single synthetic error frame. Drivers call
// this on a non-200 upstream response so Stream always satisfies the same
// contract — a caller always gets an EventStream to range over, with the
// upstream failure surfaced in-band as an `event: error` frame rather than
// a Go error the handler would have to branch on separately.
func singleErrorEvent(message string) *EventStream {
	return &EventStream{
		done:    true,
		errSent: true,
		pending: []sse.Event{errorFrame(message)},
	}
}
