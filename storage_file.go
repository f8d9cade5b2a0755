package authkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/gorilla/securecookie"
)

// fileStorageName keys the authenticated encryption of the stored value so a
// payload copied between installs does not decode.
const fileStorageName = "wearagain.refreshToken"

// FileTokenStorage persists the refresh token to a single file, encrypted
// and authenticated with securecookie. A file that fails authentication,
// decryption, or decoding reads as absent.
type FileTokenStorage struct {
	path   string
	codec  *securecookie.SecureCookie
	logger Logger
}

// NewFileTokenStorage creates a file-backed storage. hashKey authenticates
// the payload (32 or 64 bytes); blockKey enables encryption (16, 24 or 32
// bytes).
func NewFileTokenStorage(path string, hashKey, blockKey []byte, logger Logger) *FileTokenStorage {
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0)
	return &FileTokenStorage{
		path:   path,
		codec:  codec,
		logger: orNoopLogger(logger),
	}
}

func (s *FileTokenStorage) Store(_ context.Context, token string) error {
	raw, err := encodeTokenEnvelope(token)
	if err != nil {
		return err
	}
	sealed, err := s.codec.Encode(fileStorageName, raw)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(sealed), 0o600)
}

func (s *FileTokenStorage) Read(_ context.Context) (string, error) {
	sealed, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		s.logger.Errorf("failed to read token file: %v", err)
		return "", nil
	}

	var raw []byte
	if err := s.codec.Decode(fileStorageName, string(sealed), &raw); err != nil {
		// Tampered or stale payload. Treat as no session.
		s.logger.Errorf("stored token failed to decode, treating as absent: %v", err)
		return "", nil
	}
	return decodeTokenEnvelope(raw), nil
}

func (s *FileTokenStorage) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
