package authkit

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// TokenStorage is the secure-storage contract for the persisted refresh
// token. Implementations must treat a corrupt stored value as absent rather
// than fail: the caller clearing and re-authenticating is always preferable
// to a stuck session.
type TokenStorage interface {
	Store(ctx context.Context, token string) error
	// Read returns the stored token, or "" when nothing (valid) is stored.
	Read(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// tokenEnvelope is the persisted payload shape.
type tokenEnvelope struct {
	Token    string `json:"token"`
	StoredAt int64  `json:"storedAt"`
}

func encodeTokenEnvelope(token string) ([]byte, error) {
	return json.Marshal(tokenEnvelope{Token: token, StoredAt: time.Now().UnixMilli()})
}

// decodeTokenEnvelope extracts the token from a stored payload; anything
// malformed reads as absent.
func decodeTokenEnvelope(raw []byte) string {
	var env tokenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Token
}

// MemoryTokenStorage keeps the refresh token in process memory. It backs
// tests and platforms without a secure store; it does not survive restarts.
type MemoryTokenStorage struct {
	mu    sync.Mutex
	value []byte
}

// NewMemoryTokenStorage creates an empty in-memory storage.
func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{}
}

func (s *MemoryTokenStorage) Store(_ context.Context, token string) error {
	raw, err := encodeTokenEnvelope(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.value = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStorage) Read(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		return "", nil
	}
	return decodeTokenEnvelope(s.value), nil
}

func (s *MemoryTokenStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	s.value = nil
	s.mu.Unlock()
	return nil
}
