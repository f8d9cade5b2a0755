package authkit

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsignedJWT builds a structurally valid token around the given claims; the
// signature segment is junk because expiry derivation never verifies it.
func unsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s", enc.EncodeToString(header), enc.EncodeToString(payload), enc.EncodeToString([]byte("sig")))
}

func TestAccessTokenExpiry_PrefersExpiresIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	pair := TokenPair{
		AccessToken: unsignedJWT(t, map[string]any{"exp": now.Add(time.Minute).Unix()}),
		ExpiresIn:   3600,
	}

	assert.Equal(t, now.Add(time.Hour), pair.AccessTokenExpiry(now), "expiresIn wins over the exp claim")
}

func TestAccessTokenExpiry_FallsBackToExpClaim(t *testing.T) {
	t.Parallel()

	now := time.Now()
	exp := now.Add(30 * time.Minute).Truncate(time.Second)
	pair := TokenPair{AccessToken: unsignedJWT(t, map[string]any{"exp": exp.Unix(), "sub": "user-1"})}

	got := pair.AccessTokenExpiry(now)
	assert.True(t, got.Equal(exp), "want %s, got %s", exp, got)
}

func TestAccessTokenExpiry_ZeroWhenUnknowable(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name string
		pair TokenPair
	}{
		{name: "no token"},
		{name: "opaque token", pair: TokenPair{AccessToken: "not-a-jwt"}},
		{name: "jwt without exp", pair: TokenPair{AccessToken: unsignedJWT(t, map[string]any{"sub": "user-1"})}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.pair.AccessTokenExpiry(now).IsZero())
		})
	}
}
