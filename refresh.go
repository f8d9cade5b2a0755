package authkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RefreshEndpointPath is the backend endpoint that exchanges a refresh token
// for a new token pair. The HTTP transport never intercepts requests to it.
const RefreshEndpointPath = "/auth/refresh"

// RefreshError marks a failure of the refresh endpoint itself, as opposed to
// failures of the surrounding session machinery. The session store renders
// it as an expired session.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Cause)
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}

// RefreshClient exchanges a stored refresh token for a new token pair.
type RefreshClient struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewRefreshClient creates a refresh client against the backend base URL.
func NewRefreshClient(baseURL string, httpClient *http.Client, logger Logger) *RefreshClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RefreshClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     orNoopLogger(logger),
	}
}

// RefreshTokens posts the refresh token and returns the new pair. Every
// failure comes back wrapped in *RefreshError.
func (c *RefreshClient) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, &RefreshError{Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RefreshEndpointPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &RefreshError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("refresh request failed: %v", err)
		return nil, &RefreshError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Errorf("refresh endpoint returned status %d", resp.StatusCode)
		return nil, &RefreshError{Cause: fmt.Errorf("refresh endpoint returned status %d: %s", resp.StatusCode, body)}
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, &RefreshError{Cause: err}
	}
	return &pair, nil
}
