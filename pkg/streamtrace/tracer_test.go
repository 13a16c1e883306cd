package streamtrace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilTracerIsNoOp(t *testing.T) {
	var tr *Tracer
	tr.LogSource("a")
	tr.LogConverted("b")
	tr.LogError("c")
	assert.NoError(t, tr.Close())
}

func TestMaybeDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, Maybe(false, "req1", "messages", t.TempDir(), 0))
}

func TestTracerWritesLabeledEntries(t *testing.T) {
	dir := t.TempDir()
	tr := New("req1", "chat.completions.anthropic", dir, 0)
	require.NotNil(t, tr)

	tr.LogSource(`{"type":"message_start"}`)
	tr.LogConverted(`{"choices":[]}`)
	require.NoError(t, tr.Close())

	data := readOnlyTraceFile(t, dir)
	assert.Contains(t, data, "[UPSTREAM]")
	assert.Contains(t, data, "[CLIENT]")
	assert.Contains(t, data, "message_start")
}

func TestTracerTruncatesAtMaxBytes(t *testing.T) {
	dir := t.TempDir()
	tr := New("req2", "messages", dir, 512)
	require.NotNil(t, tr)

	payload := strings.Repeat("x", 200)
	for i := 0; i < 20; i++ {
		tr.LogSource(payload)
	}
	require.NoError(t, tr.Close())

	data := readOnlyTraceFile(t, dir)
	assert.Contains(t, data, "[stream trace truncated]")
	// The cap bounds the payload bytes; the truncation marker and final
	// note are the only overage allowed.
	assert.Less(t, len(data), 512+128)
}

func readOnlyTraceFile(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	return string(data)
}
