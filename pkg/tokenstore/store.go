package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jkh/llm-gateway/pkg/logger"
)

// Store persists a single provider's Bundle to a JSON file with owner-only
// permissions, writing atomically via a temp file + rename so a crash
// mid-write never corrupts the on-disk bundle. Readers cache the last
// loaded bundle in memory and invalidate it on every successful write —
// the token read sits on the hot path of every outbound request.
type Store struct {
	path string

	mu     sync.Mutex
	cached *Bundle
	loaded bool
}

// NewStore returns a Store backed by path. The parent directory is created
// (mode 0700) lazily on first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes bundle to disk atomically: temp file in the same directory,
// fsync, chmod 0600, then rename over the destination. Directory is
// created at 0700 if missing.
func (s *Store) Save(ctx context.Context, bundle *Bundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "tokenstore: create directory")
	}

	tmp, err := os.CreateTemp(dir, ".tokenstore-*.tmp")
	if err != nil {
		return errors.Wrap(err, "tokenstore: create temp file")
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return errors.Wrap(err, "tokenstore: encode bundle")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "tokenstore: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "tokenstore: close temp file")
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return errors.Wrap(err, "tokenstore: chmod temp file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrap(err, "tokenstore: rename temp file")
	}
	success = true

	cp := *bundle
	s.cached = &cp
	s.loaded = true

	logger.G(ctx).WithField("path", s.path).Debug("tokenstore: bundle saved")
	return nil
}

// Load returns the stored bundle, or (nil, nil) if no bundle is present.
// Filesystem errors other than "not found" are surfaced as IOError-shaped
// wrapped errors; a missing file is never an error.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		if s.cached == nil {
			return nil, nil
		}
		cp := *s.cached
		return &cp, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			s.cached = nil
			return nil, nil
		}
		return nil, errors.Wrap(err, "tokenstore: read bundle")
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, errors.Wrap(err, "tokenstore: decode bundle")
	}

	s.loaded = true
	cp := bundle
	s.cached = &cp
	return &bundle, nil
}

// Clear deletes the stored bundle, if any.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "tokenstore: remove bundle")
	}
	s.loaded = true
	s.cached = nil
	return nil
}

// Status reports the presence/expiry summary used by the `status` CLI
// command and the /auth/status route.
func (s *Store) Status(ctx context.Context) (Status, error) {
	bundle, err := s.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	if bundle == nil {
		return Status{Present: false}, nil
	}

	now := time.Now()
	expired := bundle.Expired(now)
	remaining := time.Unix(bundle.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Present:       true,
		Expired:       expired,
		ExpiresAt:     bundle.ExpiresAt,
		TimeRemaining: remaining,
		Type:          bundle.TokenType,
	}, nil
}
