package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Local persists objects on disk under a base directory and hands out HMAC-signed links.
type Local struct {
	baseDir string
	signer  *SignedURLSigner
	baseURL string
}

// NewLocal ensures the base directory exists. baseURL is the route serving signed tokens,
// e.g. /api/certificates/files.
func NewLocal(baseDir string, signer *SignedURLSigner, baseURL string) (*Local, error) {
	if baseDir == "" {
		baseDir = "./certificates"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{baseDir: baseDir, signer: signer, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data under key.
func (s *Local) Save(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare storage directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

// Open returns a reader for the stored object.
func (s *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *Local) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// URL returns a signed link for the object.
func (s *Local) URL(_ context.Context, resourceID, key string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, errors.New("signer not configured")
	}
	token, expiresAt, err := s.signer.Generate(resourceID, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.baseURL + "/" + token, expiresAt, nil
}

// Resolve validates a signed token and returns the key it grants access to.
func (s *Local) Resolve(token string) (*SignedToken, error) {
	if s.signer == nil {
		return nil, errors.New("signer not configured")
	}
	return s.signer.Parse(token)
}

func (s *Local) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
