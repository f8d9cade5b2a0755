package authkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshClient_Success(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    3600,
		})
	}))
	t.Cleanup(server.Close)

	client := NewRefreshClient(server.URL, server.Client(), nil)
	pair, err := client.RefreshTokens(context.Background(), "old-refresh")
	require.NoError(t, err)

	assert.Equal(t, RefreshEndpointPath, gotPath)
	assert.Equal(t, map[string]string{"refreshToken": "old-refresh"}, gotBody)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.EqualValues(t, 3600, pair.ExpiresIn)
}

func TestRefreshClient_FailuresAreRefreshErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rejected token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "not json")
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			client := NewRefreshClient(server.URL, server.Client(), nil)
			_, err := client.RefreshTokens(context.Background(), "old-refresh")
			require.Error(t, err)

			var re *RefreshError
			assert.True(t, errors.As(err, &re), "every failure wraps in RefreshError, got %T", err)
		})
	}
}

func TestRefreshClient_TransportFailureIsRefreshError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewRefreshClient(server.URL, nil, nil)
	_, err := client.RefreshTokens(context.Background(), "old-refresh")
	require.Error(t, err)

	var re *RefreshError
	require.True(t, errors.As(err, &re))
	assert.Error(t, re.Unwrap())
}
