package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the backend-issued credential pair. The access token lives
// only in memory; the refresh token is the sole persisted credential.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int64  `json:"expiresIn,omitempty"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn,omitempty"`
}

// UserStub is the minimal user shape the backend returns with a login.
type UserStub struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	Email           string `json:"email,omitempty"`
}

// AccessTokenExpiry returns the wall-clock expiry of the access token.
// When the backend omitted expiresIn it falls back to the token's own exp
// claim; a token that cannot be parsed or carries no exp yields a zero time.
func (t TokenPair) AccessTokenExpiry(now time.Time) time.Time {
	if t.ExpiresIn > 0 {
		return now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return expiryFromClaims(t.AccessToken)
}

// expiryFromClaims reads the exp claim without verifying the signature; the
// backend already vouched for the token, the claim only schedules refreshes.
func expiryFromClaims(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
