package authkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *AuthError
		expected string
	}{
		{
			name:     "with provider",
			err:      NewAuthError(ErrCodeOAuthDenied, "sign-in was denied", ProviderKakao),
			expected: `OAUTH_DENIED [kakao]: sign-in was denied`,
		},
		{
			name:     "without provider",
			err:      NewAuthError(ErrCodeTimeout, "sign-in timed out", ""),
			expected: `TIMEOUT: sign-in timed out`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAuthError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("socket closed")
	err := NewAuthError(ErrCodeNetworkError, "network problem", ProviderKakao).WithCause(cause)

	assert.ErrorIs(t, err, cause)
}

func TestAsAuthError(t *testing.T) {
	t.Parallel()

	ae := NewAuthError(ErrCodeBackendError, "backend failed", ProviderKakao)

	t.Run("direct", func(t *testing.T) {
		assert.Same(t, ae, AsAuthError(ae))
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("login: %w", ae)
		assert.Same(t, ae, AsAuthError(wrapped))
	})

	t.Run("joined chain", func(t *testing.T) {
		joined := errors.Join(errors.New("cleanup failed"), fmt.Errorf("login: %w", ae))
		assert.Same(t, ae, AsAuthError(joined))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Nil(t, AsAuthError(errors.New("boom")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsAuthError(nil))
	})
}

func TestIsAuthErrorCode(t *testing.T) {
	t.Parallel()

	err := NewAuthError(ErrCodeStateMismatch, "verification failed", ProviderGoogle)
	assert.True(t, IsAuthErrorCode(err, ErrCodeStateMismatch))
	assert.False(t, IsAuthErrorCode(err, ErrCodeTimeout))
	assert.False(t, IsAuthErrorCode(errors.New("boom"), ErrCodeTimeout))
}

func TestUserMessage_TotalOverTaxonomy(t *testing.T) {
	t.Parallel()

	codes := []ErrorCode{
		ErrCodeOAuthDenied, ErrCodeOAuthCancelled, ErrCodeNetworkError,
		ErrCodeProviderUnavailable, ErrCodeTimeout, ErrCodeBackendError,
		ErrCodeConfigError, ErrCodeNotImplemented, ErrCodeStateMismatch,
		ErrCodeParsingError, ErrCodeUnknown,
	}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			msg := UserMessage(ProviderKakao, NewAuthError(code, "internal detail", ProviderKakao))
			require.NotEmpty(t, msg)
			// Internal detail never leaks into user-facing copy.
			assert.NotContains(t, msg, "internal detail")
		})
	}
}

func TestUserMessage_ProviderSubstitution(t *testing.T) {
	t.Parallel()

	msg := UserMessage(ProviderKakao, NewAuthError(ErrCodeOAuthDenied, "", ProviderKakao))
	assert.Contains(t, msg, "Kakao")

	msg = UserMessage(ProviderApple, NewAuthError(ErrCodeNotImplemented, "", ProviderApple))
	assert.Contains(t, msg, "Apple ID")
}

func TestUserMessage_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("non-auth error", func(t *testing.T) {
		assert.Equal(t, DefaultErrorMessage, UserMessage(ProviderKakao, errors.New("boom")))
	})

	t.Run("unmapped code", func(t *testing.T) {
		err := NewAuthError(ErrorCode("SOMETHING_NEW"), "", ProviderKakao)
		assert.Equal(t, DefaultErrorMessage, UserMessage(ProviderKakao, err))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Equal(t, DefaultErrorMessage, UserMessage(ProviderKakao, nil))
	})
}
