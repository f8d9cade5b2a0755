package authkit

import (
	"context"
	"strings"
)

// NativeToken is the provider-specific token shape returned by a native SDK
// login. The session subsystem only consumes the identity token string.
type NativeToken struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// NativeSDK is the contract a native provider SDK bridge implements.
// LoginWithApp hands off to the installed provider app; LoginWithAccount is
// the provider's web-account fallback inside the SDK.
type NativeSDK interface {
	LoginWithApp(ctx context.Context) (*NativeToken, error)
	LoginWithAccount(ctx context.Context) (*NativeToken, error)
}

// Native SDK codes that mean the app hand-off is unavailable and the
// account fallback should be used instead of surfacing an error.
const (
	sdkCodeAppNotInstalled = "E_KAKAOTALK_NOT_INSTALLED"
	sdkCodeNotSupported    = "E_NOT_SUPPORTED"
)

// NativeAdapter attempts an in-app native SDK login and falls back to the
// SDK's account flow when the provider app is absent or unsupported.
type NativeAdapter struct {
	providerID string
	sdk        NativeSDK
	logger     Logger
}

// NewNativeAdapter creates an adapter for one provider's native SDK.
func NewNativeAdapter(providerID string, sdk NativeSDK, logger Logger) *NativeAdapter {
	return &NativeAdapter{
		providerID: providerID,
		sdk:        sdk,
		logger:     orNoopLogger(logger),
	}
}

// AcquireIdentityToken runs the native login and returns the identity token.
// App-absent and unsupported failures fall back to the account flow; every
// other native failure maps directly onto the taxonomy. A blank identity
// token from the fallback is a backend-side failure, distinct from a native
// one.
func (a *NativeAdapter) AcquireIdentityToken(ctx context.Context) (string, error) {
	token, err := a.sdk.LoginWithApp(ctx)
	if err != nil {
		if !a.shouldFallBackToAccount(err) {
			return "", ClassifyProviderError(a.providerID, err)
		}
		a.logger.Debugf("provider app unavailable for %s, falling back to account login", a.providerID)
	} else if idToken := extractIdentityToken(token); idToken != "" {
		return idToken, nil
	}

	token, err = a.sdk.LoginWithAccount(ctx)
	if err != nil {
		return "", ClassifyProviderError(a.providerID, err)
	}

	if idToken := extractIdentityToken(token); idToken != "" {
		return idToken, nil
	}

	return "", NewAuthError(ErrCodeBackendError, "no identity token was issued", a.providerID)
}

// shouldFallBackToAccount reports whether a native app login failure means
// the app is absent or unsupported rather than a real error.
func (a *NativeAdapter) shouldFallBackToAccount(err error) bool {
	code := strings.ToUpper(providerErrorCode(err))
	if code == sdkCodeAppNotInstalled || code == sdkCodeNotSupported {
		return true
	}

	message := strings.ToUpper(providerErrorMessage(err))
	if message == "" {
		return false
	}
	return strings.Contains(message, "KAKAOTALK") &&
		(strings.Contains(message, "NOT INSTALLED") ||
			strings.Contains(message, "NOT_INSTALLED") ||
			strings.Contains(message, "UNAVAILABLE"))
}

// extractIdentityToken treats a blank or missing identity token as absent.
func extractIdentityToken(token *NativeToken) string {
	if token == nil {
		return ""
	}
	return strings.TrimSpace(token.IDToken)
}
