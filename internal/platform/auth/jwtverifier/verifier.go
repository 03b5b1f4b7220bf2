package jwtverifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldcrew/crew-tracker-api/internal/platform/config"
)

var (
	// ErrSecretMissing means the verifier has no signing secret. This is a server
	// misconfiguration, not a problem with the caller's token.
	ErrSecretMissing = errors.New("jwt signing secret not configured")

	// ErrExpired means the token was well-formed and correctly signed but its exp has passed.
	ErrExpired = errors.New("token expired")

	// ErrInvalid covers every other rejection: malformed token, bad signature,
	// unexpected algorithm, wrong audience, missing subject.
	ErrInvalid = errors.New("invalid token")
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Verifier checks HS256 access tokens issued by the identity platform.
type Verifier struct {
	cfg   config.JWTConfig
	clock Clock
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.JWTConfig, clock Clock) *Verifier {
	if clock == nil {
		clock = realClock{}
	}
	if cfg.Audience == "" {
		cfg.Audience = config.DefaultAudience
	}
	return &Verifier{cfg: cfg, clock: clock}
}

// Verify checks the token and returns its `sub` claim.
//
// Verification:
// - HS256 signature with the shared secret
// - aud must contain the configured audience
// - exp is required; nbf is honoured when present
func (v *Verifier) Verify(token string) (string, error) {
	if v.cfg.Secret == "" {
		return "", ErrSecretMissing
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return "", ErrInvalid
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub", ErrInvalid)
	}
	return claims.Subject, nil
}
