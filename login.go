package authkit

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client ties the authentication subsystem together: provider resolution,
// the redirect or native login path, token exchange, and the session store.
type Client struct {
	opts       Options
	registry   *ProviderRegistry
	flow       *RedirectFlow
	exchange   *ExchangeClient
	refresher  *RefreshClient
	store      *SessionStore
	nativeSDKs map[string]NativeSDK
	logger     Logger
}

// NewClient wires a client from its external collaborators. A nil logger
// builds a StandardLogger at the configured level; a nil storage keeps the
// session in memory only.
func NewClient(opts Options, launcher Launcher, storage TokenStorage, logger Logger) (*Client, error) {
	if logger == nil {
		logger = NewLogger(opts.LogLevel)
	}
	if storage == nil {
		storage = NewMemoryTokenStorage()
	}

	registry := NewProviderRegistry(nil, logger)
	if opts.ProvidersFile != "" {
		if err := LoadProviderOverrides(registry, opts.ProvidersFile); err != nil {
			return nil, err
		}
	}

	timeout := time.Duration(opts.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	var limiter *rate.Limiter
	if opts.ExchangeRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.ExchangeRateLimit), 1)
	}

	refresher := NewRefreshClient(opts.APIBaseURL, httpClient, logger)

	return &Client{
		opts:       opts,
		registry:   registry,
		flow:       NewRedirectFlow(launcher, logger),
		exchange:   NewExchangeClient(opts.APIBaseURL, httpClient, limiter, logger),
		refresher:  refresher,
		store:      NewSessionStore(storage, refresher, logger),
		nativeSDKs: make(map[string]NativeSDK),
		logger:     logger,
	}, nil
}

// RegisterNativeSDK attaches a native SDK bridge for a provider. Providers
// with a registered SDK take the native path on Login.
func (c *Client) RegisterNativeSDK(providerID string, sdk NativeSDK) {
	c.nativeSDKs[providerID] = sdk
}

// SessionStore exposes the session state machine.
func (c *Client) SessionStore() *SessionStore {
	return c.store
}

// Registry exposes provider resolution, mainly for pre-flight UI checks.
func (c *Client) Registry() *ProviderRegistry {
	return c.registry
}

// Transport returns an http.RoundTripper that attaches bearer tokens and
// refresh-replays auth failures against this client's session.
func (c *Client) Transport(base http.RoundTripper) *Transport {
	return NewTransport(base, c.store, c.logger)
}

// Login runs a full social sign-in for the provider and establishes the
// session. Every failure is an *AuthError.
func (c *Client) Login(ctx context.Context, providerID string) (*LoginPayload, error) {
	config, err := c.registry.Resolve(providerID)
	if err != nil {
		return nil, err
	}

	var payload *LoginPayload
	if sdk, ok := c.nativeSDKs[providerID]; ok {
		payload, err = c.loginNative(ctx, config, sdk)
	} else {
		payload, err = c.loginAuthorizationCode(ctx, config)
	}
	if err != nil {
		return nil, err
	}

	if err := c.store.LoginSuccess(ctx, payload); err != nil {
		return nil, NewAuthError(ErrCodeUnknown, "could not establish the session", providerID).WithCause(err)
	}
	return payload, nil
}

func (c *Client) loginNative(ctx context.Context, config *ResolvedProviderConfig, sdk NativeSDK) (*LoginPayload, error) {
	adapter := NewNativeAdapter(config.ID, sdk, c.logger)
	idToken, err := adapter.AcquireIdentityToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.exchange.ExchangeNativeToken(ctx, config, idToken)
}

func (c *Client) loginAuthorizationCode(ctx context.Context, config *ResolvedProviderConfig) (*LoginPayload, error) {
	if config.ClientID == "" || config.RedirectURI == "" {
		return nil, NewAuthError(ErrCodeConfigError, config.Name+" sign-in is not fully configured", config.ID)
	}

	state, err := GenerateState()
	if err != nil {
		return nil, NewAuthError(ErrCodeUnknown, "could not start sign-in", config.ID).WithCause(err)
	}

	authURL, err := BuildAuthorizationURL(config, AuthorizeOptions{State: state})
	if err != nil {
		return nil, err
	}

	result, err := c.flow.Authorize(ctx, AuthorizationRequest{
		AuthorizationURL: authURL,
		RedirectURI:      config.RedirectURI,
		State:            state,
		ProviderID:       config.ID,
	})
	if err != nil {
		return nil, err
	}

	return c.exchange.ExchangeAuthorizationCode(ctx, config, result)
}
