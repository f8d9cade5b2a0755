package authkit

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultAuthorizeTimeout bounds a single redirect-based authorization
// attempt when the caller does not override it.
const DefaultAuthorizeTimeout = 60 * time.Second

// AuthorizationRequest describes one redirect-based authorization attempt.
// It is consumed exactly once: the first matching callback, the timeout, or
// an open failure settles it and later signals are ignored.
type AuthorizationRequest struct {
	AuthorizationURL string
	// RedirectURI is the expected callback prefix; app links that do not
	// start with it are ignored without settling the attempt.
	RedirectURI string
	State       string
	ProviderID  string
	// Timeout defaults to DefaultAuthorizeTimeout when zero.
	Timeout time.Duration
}

// AuthorizationResult carries the authorization code returned by the
// provider, together with the echoed state.
type AuthorizationResult struct {
	Code  string
	State string
}

// RedirectFlow drives the external-browser authorization flow: it opens the
// authorization URL, listens for the app-link callback, and enforces the
// timeout with settle-once semantics.
type RedirectFlow struct {
	launcher Launcher
	logger   Logger
}

// NewRedirectFlow creates a redirect flow controller.
func NewRedirectFlow(launcher Launcher, logger Logger) *RedirectFlow {
	return &RedirectFlow{
		launcher: launcher,
		logger:   orNoopLogger(logger),
	}
}

// Authorize runs a single authorization attempt. Exactly one of the
// following settles it, whichever happens first: a callback matching the
// redirect URI prefix, the timeout, an open failure, or context
// cancellation. Listener and timer cleanup runs exactly once, on the
// settling path.
func (f *RedirectFlow) Authorize(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error) {
	flowID := uuid.NewString()

	canOpen, err := f.launcher.CanOpenURL(ctx, req.AuthorizationURL)
	if err != nil || !canOpen {
		f.logger.Errorf("flow %s: cannot open authorization url for provider %s", flowID, req.ProviderID)
		return nil, NewAuthError(ErrCodeProviderUnavailable, "could not open the sign-in window", req.ProviderID).
			WithDetails(map[string]any{"authorizationUrl": req.AuthorizationURL}).
			WithCause(err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthorizeTimeout
	}

	// Listener and timer are registered before navigation so a fast
	// callback cannot be lost.
	callbacks := make(chan string, 8)
	unsubscribe := f.launcher.SubscribeAppLinks(func(u string) {
		select {
		case callbacks <- u:
		default:
			// The attempt already has enough queued signals; once it
			// settles everything else is a no-op anyway.
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	openErr := make(chan error, 1)
	go func() {
		if err := f.launcher.OpenURL(ctx, req.AuthorizationURL); err != nil {
			openErr <- err
		}
	}()

	f.logger.Debugf("flow %s: awaiting callback for provider %s (timeout %s)", flowID, req.ProviderID, timeout)

	for {
		select {
		case incoming := <-callbacks:
			if !strings.HasPrefix(incoming, req.RedirectURI) {
				f.logger.Debugf("flow %s: ignoring non-matching app link", flowID)
				continue
			}
			return f.parseCallback(req, incoming)

		case <-timer.C:
			f.logger.Infof("flow %s: authorization timed out for provider %s", flowID, req.ProviderID)
			return nil, NewAuthError(ErrCodeTimeout, "sign-in timed out", req.ProviderID)

		case err := <-openErr:
			code := ErrCodeProviderUnavailable
			if strings.Contains(strings.ToLower(err.Error()), "cancel") {
				code = ErrCodeOAuthCancelled
			}
			f.logger.Errorf("flow %s: failed to open authorization url: %v", flowID, err)
			return nil, NewAuthError(code, "could not start sign-in", req.ProviderID).WithCause(err)

		case <-ctx.Done():
			return nil, NewAuthError(ErrCodeOAuthCancelled, "sign-in was cancelled", req.ProviderID).
				WithCause(ctx.Err())
		}
	}
}

// parseCallback interprets a matching callback URL per the provider
// contract: state must echo the request nonce, error parameters map onto
// the taxonomy, and a missing code is a parsing failure.
func (f *RedirectFlow) parseCallback(req AuthorizationRequest, incoming string) (*AuthorizationResult, error) {
	parsed, err := url.Parse(incoming)
	if err != nil {
		return nil, NewAuthError(ErrCodeParsingError, "could not parse the sign-in callback", req.ProviderID).
			WithCause(err)
	}
	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil, NewAuthError(ErrCodeParsingError, "could not parse the sign-in callback", req.ProviderID).
			WithCause(err)
	}

	returnedState := query.Get("state")
	if returnedState != "" && returnedState != req.State {
		return nil, NewAuthError(ErrCodeStateMismatch, "sign-in verification failed", req.ProviderID).
			WithDetails(map[string]any{
				"expectedState": req.State,
				"receivedState": returnedState,
			})
	}

	if errParam := query.Get("error"); errParam != "" {
		switch strings.ToLower(errParam) {
		case "access_denied":
			return nil, NewAuthError(ErrCodeOAuthDenied, "sign-in was denied", req.ProviderID)
		case "user_cancelled":
			return nil, NewAuthError(ErrCodeOAuthCancelled, "sign-in was cancelled", req.ProviderID)
		default:
			return nil, NewAuthError(ErrCodeUnknown, "sign-in failed with an unknown provider error", req.ProviderID).
				WithDetails(map[string]any{"error": errParam})
		}
	}

	code := query.Get("code")
	if code == "" {
		return nil, NewAuthError(ErrCodeParsingError, "sign-in callback carried no authorization code", req.ProviderID).
			WithDetails(map[string]any{"callbackUrl": incoming})
	}

	return &AuthorizationResult{Code: code, State: returnedState}, nil
}
