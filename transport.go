package authkit

import (
	"context"
	"io"
	"net/http"
)

// sessionSource is the slice of the session store the transport needs.
type sessionSource interface {
	Snapshot() SessionState
	RefreshSession(ctx context.Context) string
}

type retryMarkerKey struct{}

// markRetried tags a request context so a replayed request never triggers a
// second refresh, even if the replay fails with an auth error again.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryMarkerKey{}, true)
}

func wasRetried(req *http.Request) bool {
	v, _ := req.Context().Value(retryMarkerKey{}).(bool)
	return v
}

// Transport is an http.RoundTripper that attaches the session's bearer token
// to outgoing requests and performs exactly one refresh-and-replay when a
// request fails with 401 or 403. Requests to the refresh endpoint itself are
// never intercepted.
type Transport struct {
	base    http.RoundTripper
	session sessionSource
	logger  Logger
}

// NewTransport wraps base with session-aware behavior. A nil base uses
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, session sessionSource, logger Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		session: session,
		logger:  orNoopLogger(logger),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Path == RefreshEndpointPath {
		return t.base.RoundTrip(req)
	}

	outgoing := req.Clone(req.Context())
	if token := t.session.Snapshot().AccessToken; token != "" && outgoing.Header.Get("Authorization") == "" {
		outgoing.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}
	if wasRetried(req) {
		return resp, nil
	}
	if !t.canReplay(req) {
		return resp, nil
	}

	newToken := t.session.RefreshSession(req.Context())
	if newToken == "" {
		// Refresh could not restore the session; surface the original
		// failure.
		return resp, nil
	}

	t.logger.Debugf("replaying %s %s after token refresh", req.Method, req.URL.Path)
	recordTransportReplay()

	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()

	replay := req.Clone(markRetried(req.Context()))
	replay.Header.Set("Authorization", "Bearer "+newToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		replay.Body = body
	}
	return t.base.RoundTrip(replay)
}

// canReplay reports whether the request body can be produced again.
func (t *Transport) canReplay(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
