package authkit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SessionStatus enumerates the session state machine.
type SessionStatus string

const (
	StatusIdle            SessionStatus = "idle"
	StatusHydrating       SessionStatus = "hydrating"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// SessionExpiredMessage is the lastError recorded when a refresh-specific
// failure terminates the session.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// SessionState is a point-in-time snapshot of the session. The store is the
// single writer; consumers read snapshots or subscribe to changes.
type SessionState struct {
	AccessToken string
	User        *UserStub
	Status      SessionStatus
	IsHydrated  bool
	// LastError is the user-facing message of the most recent session
	// failure; empty when there is none.
	LastError string
}

// TokenRefresher exchanges a stored refresh token for a new token pair.
// *RefreshClient is the production implementation.
type TokenRefresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// Single-flight slot keys. Hydrate and refresh are serialized against
// themselves but never against each other.
const (
	flightHydrate = "hydrate"
	flightRefresh = "refresh"
)

// SessionStore owns the session state machine. All mutation goes through its
// operations; hydrate and refresh are single-flighted so concurrent callers
// share one in-flight operation and its result.
type SessionStore struct {
	storage   TokenStorage
	refresher TokenRefresher
	logger    Logger

	flights singleflight.Group

	mu          sync.RWMutex
	state       SessionState
	subscribers map[int]func(SessionState)
	nextSubID   int
}

// NewSessionStore creates a store in the idle state.
func NewSessionStore(storage TokenStorage, refresher TokenRefresher, logger Logger) *SessionStore {
	return &SessionStore{
		storage:     storage,
		refresher:   refresher,
		logger:      orNoopLogger(logger),
		state:       SessionState{Status: StatusIdle},
		subscribers: make(map[int]func(SessionState)),
	}
}

// Snapshot returns the current session state.
func (s *SessionStore) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every state change and returns a function that
// removes the registration. fn runs synchronously on the mutating goroutine.
func (s *SessionStore) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// setState applies a mutation and notifies subscribers outside the lock.
func (s *SessionStore) setState(mutate func(*SessionState)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	subs := make([]func(SessionState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// LoginSuccess establishes an authenticated session from an exchange result.
// The refresh token is persisted before any state becomes visible, so a
// crash between the two never leaves an authenticated state without a
// persisted credential.
func (s *SessionStore) LoginSuccess(ctx context.Context, payload *LoginPayload) error {
	if payload.Tokens.RefreshToken == "" {
		return fmt.Errorf("login payload carried no refresh token")
	}
	if err := s.storage.Store(ctx, payload.Tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}

	s.setState(func(st *SessionState) {
		st.AccessToken = payload.Tokens.AccessToken
		st.User = payload.User
		st.Status = StatusAuthenticated
		st.IsHydrated = true
		st.LastError = ""
	})

	s.logger.Infof("login succeeded via %s (new user: %t)", payload.Provider, payload.IsNewUser)
	return nil
}

// Hydrate restores the session from the persisted refresh token. Concurrent
// callers share one in-flight hydration; a later call re-runs from scratch.
// With no stored token it settles unauthenticated without any network call.
func (s *SessionStore) Hydrate(ctx context.Context) SessionState {
	v, _, _ := s.flights.Do(flightHydrate, func() (interface{}, error) {
		return s.runHydrate(ctx), nil
	})
	return v.(SessionState)
}

func (s *SessionStore) runHydrate(ctx context.Context) SessionState {
	s.setState(func(st *SessionState) {
		st.Status = StatusHydrating
		st.LastError = ""
	})

	refreshToken, err := s.storage.Read(ctx)
	if err != nil {
		s.logger.Errorf("failed to read stored refresh token: %v", err)
	}
	if refreshToken == "" {
		s.setState(func(st *SessionState) {
			*st = SessionState{Status: StatusUnauthenticated, IsHydrated: true}
		})
		return s.Snapshot()
	}

	pair, err := s.refresher.RefreshTokens(ctx, refreshToken)
	if err != nil {
		s.logger.Errorf("failed to hydrate session: %v", err)
		if clearErr := s.storage.Clear(ctx); clearErr != nil {
			s.logger.Errorf("failed to clear stored refresh token: %v", clearErr)
		}
		message := refreshFailureMessage(err)
		s.setState(func(st *SessionState) {
			*st = SessionState{Status: StatusUnauthenticated, IsHydrated: true, LastError: message}
		})
		return s.Snapshot()
	}

	if err := s.applyTokens(ctx, pair); err != nil {
		s.logger.Errorf("failed to persist refreshed token: %v", err)
	}
	s.setState(func(st *SessionState) {
		st.Status = StatusAuthenticated
		st.IsHydrated = true
		st.LastError = ""
	})
	return s.Snapshot()
}

// RefreshSession exchanges the stored refresh token for a new access token.
// Concurrent callers share one in-flight refresh and receive the identical
// result. It returns "" when the session could not be refreshed; the store
// has then already logged out.
func (s *SessionStore) RefreshSession(ctx context.Context) string {
	v, _, _ := s.flights.Do(flightRefresh, func() (interface{}, error) {
		return s.runRefresh(ctx), nil
	})
	return v.(string)
}

func (s *SessionStore) runRefresh(ctx context.Context) string {
	refreshToken, err := s.storage.Read(ctx)
	if err != nil {
		s.logger.Errorf("failed to read stored refresh token: %v", err)
	}
	if refreshToken == "" {
		recordRefreshOutcome("no_token")
		s.Logout(ctx, "")
		return ""
	}

	pair, err := s.refresher.RefreshTokens(ctx, refreshToken)
	if err != nil {
		s.logger.Errorf("token refresh failed: %v", err)
		recordRefreshOutcome("error")
		s.Logout(ctx, refreshFailureMessage(err))
		return ""
	}

	if err := s.applyTokens(ctx, pair); err != nil {
		s.logger.Errorf("failed to persist refreshed token: %v", err)
	}
	s.setState(func(st *SessionState) {
		st.Status = StatusAuthenticated
		st.IsHydrated = true
		st.LastError = ""
	})
	recordRefreshOutcome("ok")
	return pair.AccessToken
}

// applyTokens persists the rotated refresh token, then exposes the new
// access token.
func (s *SessionStore) applyTokens(ctx context.Context, pair *TokenPair) error {
	err := s.storage.Store(ctx, pair.RefreshToken)
	s.setState(func(st *SessionState) {
		st.AccessToken = pair.AccessToken
	})
	return err
}

// Logout clears the persisted token and resets to unauthenticated. reason,
// when non-empty, becomes the state's lastError.
func (s *SessionStore) Logout(ctx context.Context, reason string) {
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Errorf("failed to clear stored refresh token on logout: %v", err)
	}
	s.setState(func(st *SessionState) {
		*st = SessionState{Status: StatusUnauthenticated, IsHydrated: true, LastError: reason}
	})
}

// SetUser replaces the user stub without touching the rest of the state.
func (s *SessionStore) SetUser(user *UserStub) {
	s.setState(func(st *SessionState) {
		st.User = user
	})
}

// ClearError drops the recorded lastError.
func (s *SessionStore) ClearError() {
	s.setState(func(st *SessionState) {
		st.LastError = ""
	})
}

// refreshFailureMessage derives the user-facing message for a failed
// refresh: refresh-specific failures mean the session expired, anything
// else carries no message.
func refreshFailureMessage(err error) string {
	var re *RefreshError
	if errors.As(err, &re) {
		return SessionExpiredMessage
	}
	return ""
}
