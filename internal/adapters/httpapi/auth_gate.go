package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldcrew/crew-tracker-api/internal/app/authn"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// IdentityVerifier resolves an Authorization header to the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, header string) (domain.Identity, error)
}

// AdminHandlerFunc is a handler that runs only for verified admins.
type AdminHandlerFunc func(w http.ResponseWriter, r *http.Request, admin domain.Identity)

// RequireAdmin wraps next so it only runs for a verified identity whose role is exactly "admin".
//
// On success the identity is passed to next and also stored in the request context.
func RequireAdmin(v IdentityVerifier, logger *slog.Logger) func(AdminHandlerFunc) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next AdminHandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				var ae *authn.Error
				if errors.As(err, &ae) {
					if ae.Kind == authn.KindConfigMissing || ae.Kind == authn.KindVerificationFailed {
						logger.Error("admin authentication failed", "code", ae.Code(), "error", err)
					}
					writeError(w, r, ae.Status(), ae.Code(), ae.Message, nil)
					return
				}
				logger.Error("admin authentication failed", "error", err)
				writeError(w, r, http.StatusUnauthorized, "AUTH_VERIFICATION_FAILED", "Token verification failed", nil)
				return
			}

			if !id.IsAdmin() {
				writeError(w, r, http.StatusForbidden, "ROLE_DENIED", "Admin access required", nil)
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), id)), id)
		}
	}
}
