package authkit

import (
	"errors"
	"strings"
)

// ProviderError is the structural shape native SDK failures arrive in. SDK
// bridges populate whichever of Code / ErrorCode / Message they have; the
// classifier never relies on a concrete SDK error type.
type ProviderError struct {
	Code      string
	ErrorCode string
	Message   string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return e.ErrorCode
}

// providerErrorCode extracts the SDK error code from anywhere in the chain.
// Code wins over ErrorCode when both are set.
func providerErrorCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Code != "" {
			return pe.Code
		}
		return pe.ErrorCode
	}
	return ""
}

func providerErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// Native SDK error codes with dedicated classifications.
const (
	sdkCodeInProgress   = "E_IN_PROGRESS_OPERATION"
	sdkCodeNetworkError = "E_NETWORK_ERROR"
)

// ClassifyProviderError folds an arbitrary native SDK failure into the
// canonical taxonomy. It accepts any error shape and never panics: an
// AuthError passes through, recognised codes and message fragments map to
// their kinds, everything else is PROVIDER_UNAVAILABLE.
func ClassifyProviderError(providerID string, err error) *AuthError {
	if ae := AsAuthError(err); ae != nil {
		return ae
	}

	code := strings.ToUpper(providerErrorCode(err))
	message := strings.ToUpper(providerErrorMessage(err))

	switch {
	case strings.Contains(code, "CANCEL") || strings.Contains(message, "CANCEL"):
		return NewAuthError(ErrCodeOAuthCancelled, "sign-in was cancelled", providerID).WithCause(err)

	case code == sdkCodeInProgress:
		return NewAuthError(ErrCodeProviderUnavailable, "a sign-in is already in progress, try again later", providerID).
			WithCause(err)

	case code == sdkCodeNetworkError || strings.Contains(message, "NETWORK"):
		return NewAuthError(ErrCodeNetworkError, "network problem during sign-in", providerID).WithCause(err)

	default:
		return NewAuthError(ErrCodeProviderUnavailable, "sign-in failed, try again later", providerID).
			WithCause(err)
	}
}
