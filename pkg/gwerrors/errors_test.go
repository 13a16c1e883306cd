package gwerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"auth absent", AuthAbsent("no token"), 401},
		{"auth expired", AuthExpired("expired", nil), 401},
		{"upstream status passthrough", UpstreamStatus(429, "rate limited"), 429},
		{"upstream status default", &Error{Kind: KindUpstreamStatus}, 502},
		{"upstream transport", UpstreamTransport("timeout", nil), 502},
		{"malformed upstream", MalformedUpstream("bad json", nil), 502},
		{"client malformed", ClientMalformed("model", "required"), 400},
		{"internal", Internal("boom", errors.New("x")), 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ge, ok := As(tc.err)
			assert.True(t, ok)
			assert.Equal(t, tc.want, ge.HTTPStatus())
		})
	}
}

func TestAsIgnoresStringCopyButMatchesTypedError(t *testing.T) {
	base := ClientMalformed("model", "missing")
	wrapped := errors.New("context: " + base.Error())
	_, ok := As(wrapped)
	assert.False(t, ok)

	_, ok = As(base)
	assert.True(t, ok)
}
