package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseAll parses a complete byte sequence in one shot, for comparison
// against a chunked Feed/Flush sequence.
func parseAll(s string) []Event {
	p := &Parser{}
	events := p.Feed(s)
	events = append(events, p.Flush()...)
	return events
}

func TestChunkedAcrossLineBoundaries(t *testing.T) {
	p := &Parser{}
	chunks := []string{"event: x\nda", "ta: a\nda", "ta: b\n\n"}

	var got []Event
	for _, c := range chunks {
		got = append(got, p.Feed(c)...)
	}
	got = append(got, p.Flush()...)

	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Event)
	assert.Equal(t, "a\nb", got[0].Data)
}

func TestFeedFlushEquivalentToWholeParse(t *testing.T) {
	whole := "event: a\ndata: 1\n\nevent: b\ndata: 2\ndata: 3\n\n:comment\ndata: 4\n\n"

	direct := parseAll(whole)

	p := &Parser{}
	var chunked []Event
	for i := 0; i < len(whole); i += 3 {
		end := i + 3
		if end > len(whole) {
			end = len(whole)
		}
		chunked = append(chunked, p.Feed(whole[i:end])...)
	}
	chunked = append(chunked, p.Flush()...)

	assert.Equal(t, direct, chunked)
}

func TestCommentLinesAreIgnored(t *testing.T) {
	events := parseAll(":keep-alive\ndata: hello\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "hello", events[0].Data)
}

func TestCRLFTolerated(t *testing.T) {
	events := parseAll("event: x\r\ndata: a\r\n\r\n")
	require.Len(t, events, 1)
	assert.Equal(t, "x", events[0].Event)
	assert.Equal(t, "a", events[0].Data)
}

func TestMalformedLineTreatedAsData(t *testing.T) {
	events := parseAll("not-a-valid-field\n\n")
	require.Len(t, events, 1)
	assert.Equal(t, "not-a-valid-field", events[0].Data)
}

func TestFlushEmitsUnterminatedTrailingPartialLine(t *testing.T) {
	p := &Parser{}
	events := p.Feed("event: x\ndata: a\n\ndata: partial-no-newline")

	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].Data)

	flushed := p.Flush()
	require.Len(t, flushed, 1)
	assert.Equal(t, "", flushed[0].Event)
	assert.Equal(t, "data: partial-no-newline", flushed[0].Data)
}

func TestFlushOnEmptyParserReturnsNothing(t *testing.T) {
	p := &Parser{}
	assert.Empty(t, p.Flush())
}

func TestEmptyChunkIsNoOp(t *testing.T) {
	p := &Parser{}
	assert.Empty(t, p.Feed(""))
}
