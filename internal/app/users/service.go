package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

// Result is the outcome of a user deletion in the {success, message} envelope.
type Result struct {
	Status  int
	Success bool
	Message string
}

type Service struct {
	identities identity.Provider
	log        *slog.Logger
}

func NewService(identities identity.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{identities: identities, log: logger}
}

// DeleteUser removes the identity after confirming it exists.
func (s *Service) DeleteUser(ctx context.Context, id domain.IdentityID) Result {
	if _, err := s.identities.GetByID(ctx, id); err != nil {
		s.log.Warn("user lookup failed", "user_id", string(id), "error", err)
		return Result{Status: http.StatusNotFound, Message: fmt.Sprintf("User not found: %v", err)}
	}
	if err := s.identities.Delete(ctx, id); err != nil {
		s.log.Error("user delete failed", "user_id", string(id), "error", err)
		return Result{Status: http.StatusInternalServerError, Message: fmt.Sprintf("Unexpected error: %v", err)}
	}
	s.log.Info("user deleted", "user_id", string(id))
	return Result{Status: http.StatusOK, Success: true, Message: fmt.Sprintf("User %s deleted successfully", id)}
}
