package authn

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/auth/jwtverifier"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

// TokenDecoder validates a raw token and returns its subject.
type TokenDecoder interface {
	Verify(token string) (string, error)
}

// Verifier turns an Authorization header into the caller's Identity.
type Verifier struct {
	tokens     TokenDecoder
	identities identity.Provider
}

func NewVerifier(tokens TokenDecoder, identities identity.Provider) *Verifier {
	return &Verifier{tokens: tokens, identities: identities}
}

// Verify checks the bearer credential and fetches its identity.
// Exactly one identity lookup is made per call; nothing is cached.
func (v *Verifier) Verify(ctx context.Context, header string) (domain.Identity, error) {
	token, ok := bearerToken(header)
	if !ok {
		return domain.Identity{}, &Error{Kind: KindMissing, Message: "Missing or invalid authorization header"}
	}

	sub, err := v.tokens.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, jwtverifier.ErrSecretMissing):
			return domain.Identity{}, &Error{Kind: KindConfigMissing, Message: "Server authentication is not configured", Err: err}
		case errors.Is(err, jwtverifier.ErrExpired):
			return domain.Identity{}, &Error{Kind: KindExpired, Message: "Token has expired", Err: err}
		default:
			return domain.Identity{}, &Error{Kind: KindInvalid, Message: "Invalid token", Err: err}
		}
	}

	id, err := v.identities.GetByID(ctx, domain.IdentityID(sub))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return domain.Identity{}, &Error{Kind: KindIdentityNotFound, Message: "User not found", Err: err}
		}
		return domain.Identity{}, &Error{Kind: KindVerificationFailed, Message: "Token verification failed: " + err.Error(), Err: err}
	}
	if id.ID == "" {
		return domain.Identity{}, &Error{Kind: KindIdentityNotFound, Message: "User not found"}
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
