// Package sse implements an incremental parser for text/event-stream
// payloads: Feed consumes raw bytes as they arrive and returns
// whatever complete frames they completed; Flush drains whatever is left
// at stream end, including a final synthetic event for an unterminated
// trailing partial line.
package sse

import "strings"

// Event is one parsed SSE frame. Event is empty when the source stream
// sent no "event:" line for this frame (a data-only event).
type Event struct {
	Event string
	Data  string
}

// Parser is a stateful, incremental text/event-stream decoder. The zero
// value is ready to use.
type Parser struct {
	buffer       strings.Builder
	currentEvent string
	haveEvent    bool
	currentData  []string
}

// Feed consumes a chunk of raw bytes and returns every frame it
// completed. Partial lines (no trailing "\n" yet) are buffered and
// carried into the next Feed or Flush call.
func (p *Parser) Feed(chunk string) []Event {
	var events []Event
	if chunk == "" {
		return events
	}

	p.buffer.WriteString(chunk)
	buf := p.buffer.String()
	p.buffer.Reset()

	for {
		idx := strings.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := buf[:idx]
		buf = buf[idx+1:]
		line = strings.TrimSuffix(line, "\r")

		if ev, ok := p.consumeLine(line); ok {
			events = append(events, ev)
		}
	}

	p.buffer.WriteString(buf)
	return events
}

// consumeLine applies one already-trimmed line to parser state. Returns
// a completed Event and true if the line was a blank-line terminator for
// a non-empty frame.
func (p *Parser) consumeLine(line string) (Event, bool) {
	switch {
	case line == "":
		if p.haveEvent || len(p.currentData) > 0 {
			ev := Event{Event: p.currentEvent, Data: strings.Join(p.currentData, "\n")}
			p.resetFrame()
			return ev, true
		}
		p.resetFrame()
		return Event{}, false

	case strings.HasPrefix(line, ":"):
		return Event{}, false

	case strings.HasPrefix(line, "event:"):
		p.currentEvent = strings.TrimLeft(strings.TrimPrefix(line, "event:"), " \t\n\v\f\r")
		p.haveEvent = true
		return Event{}, false

	case strings.HasPrefix(line, "data:"):
		v := strings.TrimPrefix(line, "data:")
		v = strings.TrimPrefix(v, " ")
		p.currentData = append(p.currentData, v)
		return Event{}, false

	default:
		// Malformed line: treated as data, defensively.
		p.currentData = append(p.currentData, line)
		return Event{}, false
	}
}

func (p *Parser) resetFrame() {
	p.currentEvent = ""
	p.haveEvent = false
	p.currentData = nil
}

// Flush drains any in-progress frame plus a nonempty unterminated
// trailing partial line. A partial line that never received a final "\n"
// is still surfaced — as a data-only event — rather than silently
// dropped, since the upstream connection closing is itself the
// terminator for the last line.
func (p *Parser) Flush() []Event {
	var events []Event

	if p.haveEvent || len(p.currentData) > 0 {
		events = append(events, Event{Event: p.currentEvent, Data: strings.Join(p.currentData, "\n")})
	}

	if rest := p.buffer.String(); rest != "" {
		events = append(events, Event{Data: rest})
	}

	p.resetFrame()
	p.buffer.Reset()
	return events
}
