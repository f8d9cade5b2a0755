package authkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// LoginPayload is the backend's answer to a successful token exchange.
type LoginPayload struct {
	Provider  string
	Tokens    TokenPair
	IsNewUser bool
	User      *UserStub
}

// exchangeResponse is the backend wire shape for callback endpoints.
type exchangeResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresIn        int64     `json:"expiresIn,omitempty"`
	RefreshExpiresIn int64     `json:"refreshExpiresIn,omitempty"`
	IsNewUser        bool      `json:"isNewUser,omitempty"`
	User             *UserStub `json:"user,omitempty"`
}

// backendErrorBody is the backend wire shape for error responses.
type backendErrorBody struct {
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// statusError is an HTTP response with a non-2xx status. Its presence in an
// error chain distinguishes a classified backend failure from a transport
// failure that produced no response at all.
type statusError struct {
	status  int
	backend backendErrorBody
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d (code %q)", e.status, e.backend.Code)
}

// backendCodeMap is the fixed lookup from backend error codes onto the
// taxonomy. Unrecognized codes fall through to BACKEND_ERROR.
var backendCodeMap = map[string]ErrorCode{
	"OAUTH_DENIED":          ErrCodeOAuthDenied,
	"USER_CANCELLED":        ErrCodeOAuthCancelled,
	"PROVIDER_ERROR":        ErrCodeBackendError,
	"NETWORK_ERROR":         ErrCodeNetworkError,
	"INVALID_AUTH_CODE":     ErrCodeBackendError,
	"TOKEN_EXCHANGE_FAILED": ErrCodeBackendError,
}

// ExchangeClient exchanges an authorization code or a native identity token
// for a backend token pair, with bounded retry on transient failures.
type ExchangeClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryOptions
	logger     Logger
}

// NewExchangeClient creates an exchange client against the backend base URL.
// A nil httpClient gets a 10s-timeout default; a nil limiter disables rate
// limiting.
func NewExchangeClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter, logger Logger) *ExchangeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ExchangeClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		retry:      RetryOptions{ShouldRetry: shouldRetryExchange},
		logger:     orNoopLogger(logger),
	}
}

// SetRetryOptions overrides the retry budget, keeping the exchange retry
// predicate. Mainly for tests that cannot afford real backoff delays.
func (c *ExchangeClient) SetRetryOptions(opts RetryOptions) {
	opts.ShouldRetry = shouldRetryExchange
	c.retry = opts
}

// ExchangeAuthorizationCode trades a redirect-flow result for a token pair
// via the provider's callback endpoint.
func (c *ExchangeClient) ExchangeAuthorizationCode(ctx context.Context, config *ResolvedProviderConfig, result *AuthorizationResult) (*LoginPayload, error) {
	body := map[string]string{
		"code":        result.Code,
		"state":       result.State,
		"redirectUri": config.RedirectURI,
	}
	return c.exchange(ctx, config.ID, config.CallbackPath, body)
}

// ExchangeNativeToken trades a native SDK identity token for a token pair
// via the provider's native callback endpoint.
func (c *ExchangeClient) ExchangeNativeToken(ctx context.Context, config *ResolvedProviderConfig, idToken string) (*LoginPayload, error) {
	path := config.NativeCallbackPath
	if path == "" {
		path = config.CallbackPath
	}
	return c.exchange(ctx, config.ID, path, map[string]string{"idToken": idToken})
}

func (c *ExchangeClient) exchange(ctx context.Context, providerID, path string, body map[string]string) (*LoginPayload, error) {
	var resp *exchangeResponse
	err := retryWithBackoff(ctx, c.retry, func() error {
		r, err := c.postJSON(ctx, path, body)
		if err != nil {
			recordExchangeAttempt("error")
			return err
		}
		recordExchangeAttempt("ok")
		resp = r
		return nil
	})
	if err != nil {
		return nil, c.mapExchangeError(providerID, err)
	}

	return &LoginPayload{
		Provider: providerID,
		Tokens: TokenPair{
			AccessToken:      resp.AccessToken,
			RefreshToken:     resp.RefreshToken,
			ExpiresIn:        resp.ExpiresIn,
			RefreshExpiresIn: resp.RefreshExpiresIn,
		},
		IsNewUser: resp.IsNewUser,
		User:      resp.User,
	}, nil
}

// postJSON performs one exchange attempt. Non-2xx statuses come back as a
// *statusError carrying the decoded backend error body.
func (c *ExchangeClient) postJSON(ctx context.Context, path string, body map[string]string) (*exchangeResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		serr := &statusError{status: httpResp.StatusCode}
		// A body that is not the documented error shape still classifies by
		// status alone.
		_ = json.Unmarshal(raw, &serr.backend)
		return nil, serr
	}

	var resp exchangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &parseFailure{cause: err}
	}
	return &resp, nil
}

// parseFailure marks a 2xx response whose body could not be decoded.
type parseFailure struct{ cause error }

func (e *parseFailure) Error() string { return "could not decode backend response" }
func (e *parseFailure) Unwrap() error { return e.cause }

// shouldRetryExchange allows a retry when there was no response at all, the
// failure was a transport timeout, or the backend answered 5xx. Client
// errors (4xx) and undecodable success bodies never retry.
func shouldRetryExchange(err error, _ int) bool {
	var pf *parseFailure
	if errors.As(err, &pf) {
		return false
	}

	var serr *statusError
	if errors.As(err, &serr) {
		return serr.status >= 500 && serr.status < 600
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}

	// Unrecognized transport failure with no response.
	return true
}

// mapExchangeError folds a final exchange failure into the taxonomy.
func (c *ExchangeClient) mapExchangeError(providerID string, err error) error {
	if ae := AsAuthError(err); ae != nil {
		return ae
	}

	var pf *parseFailure
	if errors.As(err, &pf) {
		return NewAuthError(ErrCodeParsingError, "could not decode the sign-in response", providerID).
			WithCause(pf.cause)
	}

	var serr *statusError
	if !errors.As(err, &serr) {
		c.logger.Errorf("token exchange transport failure for %s: %v", providerID, err)
		return NewAuthError(ErrCodeNetworkError, "network problem during sign-in", providerID).WithCause(err)
	}

	code := ErrCodeBackendError
	if mapped, ok := backendCodeMap[serr.backend.Code]; ok && serr.backend.Code != "" {
		code = mapped
	}

	c.logger.Errorf("token exchange failed for %s: status %d, backend code %q", providerID, serr.status, serr.backend.Code)
	return NewAuthError(code, "sign-in could not be completed", providerID).
		WithCause(err).
		WithDetails(map[string]any{
			"status":         serr.status,
			"backendCode":    serr.backend.Code,
			"backendMessage": serr.backend.Message,
		})
}
