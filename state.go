package authkit

import (
	"crypto/rand"
	"fmt"
)

const (
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	stateLength   = 32
)

// GenerateState produces a random anti-forgery state nonce for an
// authorization attempt.
func GenerateState() (string, error) {
	buf := make([]byte, stateLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate state nonce: %w", err)
	}
	for i, b := range buf {
		buf[i] = stateAlphabet[int(b)%len(stateAlphabet)]
	}
	return string(buf), nil
}
