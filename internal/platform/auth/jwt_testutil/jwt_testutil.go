package jwt_testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintHS256JWT creates a platform-style access token signed with secret.
//
// aud may be either a string or []string. A non-positive expDelta yields an already-expired token.
func MintHS256JWT(secret string, aud any, sub string, now time.Time, expDelta time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"exp": now.Add(expDelta).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// MintWithMethod signs the same claims with an arbitrary method and key, for negative tests.
func MintWithMethod(method jwt.SigningMethod, key any, aud any, sub string, now time.Time, expDelta time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"exp": now.Add(expDelta).Unix(),
	}
	return jwt.NewWithClaims(method, claims).SignedString(key)
}
