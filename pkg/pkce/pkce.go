// Package pkce generates and persists PKCE (Proof Key for Code Exchange)
// verifier/challenge pairs across the gap between building an authorize
// URL and exchanging the resulting code.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/authhandler"
)

// verifierBytes is the number of random bytes used to build the verifier.
const verifierBytes = 32

func randomURLSafeString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "pkce: read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Generate produces a fresh verifier/challenge pair using the S256
// method, carried as authhandler.PKCEParams.
func Generate() (*authhandler.PKCEParams, error) {
	verifier, err := randomURLSafeString(verifierBytes)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	return &authhandler.PKCEParams{
		Challenge:       challenge,
		ChallengeMethod: "S256",
		Verifier:        verifier,
	}, nil
}

// state is the on-disk persisted shape between authorize-URL generation
// and code exchange.
type state struct {
	Verifier string `json:"verifier"`
	State    string `json:"state"`
}

// Engine persists PKCE state to a single JSON file in a temp directory.
type Engine struct {
	path string
}

// NewEngine returns an Engine that persists to the given path. If path is
// empty, a default under os.TempDir() is used.
func NewEngine(path string) *Engine {
	if path == "" {
		path = filepath.Join(os.TempDir(), "llm-gateway-pkce.json")
	}
	return &Engine{path: path}
}

// Persist writes verifier/state to disk, overwriting any prior state.
// The state parameter is conventionally equal to verifier (mirrors the
// upstream issuer's accepted convention).
func (e *Engine) Persist(verifier, stateParam string) error {
	data, err := json.Marshal(state{Verifier: verifier, State: stateParam})
	if err != nil {
		return errors.Wrap(err, "pkce: marshal state")
	}
	if err := os.WriteFile(e.path, data, 0o600); err != nil {
		return errors.Wrap(err, "pkce: write state")
	}
	return nil
}

// Load reads back the persisted verifier/state, if any.
func (e *Engine) Load() (verifier, stateParam string, ok bool, err error) {
	data, readErr := os.ReadFile(e.path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", "", false, nil
		}
		return "", "", false, errors.Wrap(readErr, "pkce: read state")
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return "", "", false, errors.Wrap(err, "pkce: decode state")
	}
	return s.Verifier, s.State, true, nil
}

// Clear removes the persisted state. Callers MUST call this after a
// successful exchange.
func (e *Engine) Clear() error {
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "pkce: clear state")
	}
	return nil
}
