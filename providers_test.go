package authkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapLookup builds an EnvLookup from a plain map so tests never touch the
// process environment.
func mapLookup(values map[string]string) EnvLookup {
	return func(key string) string {
		return values[key]
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry(mapLookup(nil), nil)
	_, err := registry.Resolve("naver")

	require.Error(t, err)
	assert.True(t, IsAuthErrorCode(err, ErrCodeUnknown))
}

func TestRegistry_UnimplementedProviders(t *testing.T) {
	t.Parallel()

	// Unimplemented providers fail NOT_IMPLEMENTED even with a fully
	// populated environment: the implemented flag is checked first.
	lookup := mapLookup(map[string]string{
		"APPLE_CLIENT_ID":    "apple-client",
		"APPLE_REDIRECT_URI": "app://auth/apple",
	})
	registry := NewProviderRegistry(lookup, nil)

	for _, id := range []string{ProviderApple, ProviderGoogle} {
		t.Run(id, func(t *testing.T) {
			_, err := registry.Resolve(id)
			require.Error(t, err)
			assert.True(t, IsAuthErrorCode(err, ErrCodeNotImplemented), "got %v", err)
		})
	}
}

func TestRegistry_KakaoResolvesWithoutClientConfig(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry(mapLookup(nil), nil)
	config, err := registry.Resolve(ProviderKakao)

	require.NoError(t, err)
	assert.Equal(t, ProviderKakao, config.ID)
	assert.Equal(t, []string{"openid", "profile_nickname", "account_email"}, config.Scopes)
	assert.Equal(t, defaultKakaoNativeCallbackPath, config.NativeCallbackPath)
}

func TestRegistry_MissingConfigKeys(t *testing.T) {
	t.Parallel()

	// A config-required provider missing exactly one key reports exactly
	// that key.
	implemented := builtinProviderDefinitions()[ProviderGoogle]
	implemented.Implemented = true

	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "missing client id",
			env:     map[string]string{"GOOGLE_REDIRECT_URI": "app://auth/google"},
			missing: []string{"GOOGLE_CLIENT_ID"},
		},
		{
			name:    "missing redirect uri",
			env:     map[string]string{"GOOGLE_CLIENT_ID": "google-client"},
			missing: []string{"GOOGLE_REDIRECT_URI"},
		},
		{
			name:    "missing both",
			env:     map[string]string{},
			missing: []string{"GOOGLE_CLIENT_ID", "GOOGLE_REDIRECT_URI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewProviderRegistry(mapLookup(tt.env), nil)
			registry.OverrideDefinition(implemented)

			_, err := registry.Resolve(ProviderGoogle)
			require.Error(t, err)

			ae := AsAuthError(err)
			require.NotNil(t, ae)
			assert.Equal(t, ErrCodeConfigError, ae.Code)
			assert.Equal(t, tt.missing, ae.Details["missingKeys"])
		})
	}
}

func TestRegistry_ScopeOverride(t *testing.T) {
	t.Parallel()

	lookup := mapLookup(map[string]string{
		"OAUTH_KAKAO_SCOPES": " openid , account_email ,, ",
	})
	registry := NewProviderRegistry(lookup, nil)

	config, err := registry.Resolve(ProviderKakao)
	require.NoError(t, err)
	assert.Equal(t, []string{"openid", "account_email"}, config.Scopes)
}

func TestRegistry_NativeCallbackPathOverride(t *testing.T) {
	t.Parallel()

	lookup := mapLookup(map[string]string{
		"OAUTH_KAKAO_NATIVE_CALLBACK_PATH": "/auth/kakao/native-v2",
	})
	registry := NewProviderRegistry(lookup, nil)

	config, err := registry.Resolve(ProviderKakao)
	require.NoError(t, err)
	assert.Equal(t, "/auth/kakao/native-v2", config.NativeCallbackPath)
}

func TestProviderDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Kakao", ProviderDisplayName(ProviderKakao))
	assert.Equal(t, "Apple ID", ProviderDisplayName(ProviderApple))
	assert.Equal(t, "naver", ProviderDisplayName("naver"))
}
