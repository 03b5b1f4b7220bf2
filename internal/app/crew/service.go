package crew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

// SetPasswordPath is appended to the frontend URL to build the invite redirect.
const SetPasswordPath = "/set-password"

// Deps wires a Service.
type Deps struct {
	// Directory serves public listings and may use restricted credentials.
	Directory crewrepo.Reader
	// Roster performs admin reads and writes with privileged credentials.
	Roster     crewrepo.Repository
	Identities identity.Provider
	Clock      clockport.Clock
	Logger     *slog.Logger

	// FrontendURL is the base for the invite redirect.
	FrontendURL string
}

type Service struct {
	directory  crewrepo.Reader
	roster     crewrepo.Repository
	identities identity.Provider
	clk        clockport.Clock
	log        *slog.Logger
	redirectTo string

	newCrewMemberID func() domain.CrewMemberID
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	directory := d.Directory
	if directory == nil {
		directory = d.Roster
	}
	return &Service{
		directory:  directory,
		roster:     d.Roster,
		identities: d.Identities,
		clk:        d.Clock,
		log:        log,
		redirectTo: strings.TrimRight(d.FrontendURL, "/") + SetPasswordPath,
		newCrewMemberID: func() domain.CrewMemberID {
			return domain.CrewMemberID(uuid.NewString())
		},
	}
}

// ListCrew returns every crew member of org in storage order. It never returns nil.
func (s *Service) ListCrew(ctx context.Context, org string) ([]domain.CrewMember, error) {
	org = strings.TrimSpace(org)
	if org == "" {
		return nil, &Error{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: "Organization ID is required",
		}
	}
	ms, err := s.directory.ListByOrganization(ctx, domain.OrgID(org))
	if err != nil {
		return nil, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "ROSTER_READ_FAILED",
			Message: "Failed to list crew members",
			Err:     err,
		}
	}
	if ms == nil {
		ms = []domain.CrewMember{}
	}
	return ms, nil
}

// AddCrewMember invites an identity for the new crew member and inserts the
// roster row linked to it, scoped to the admin's organization.
func (s *Service) AddCrewMember(ctx context.Context, admin domain.Identity, in AddCrewMemberInput) (domain.CrewMember, Outcome, error) {
	name := domain.NormalizeHumanName(in.Name)
	email := strings.TrimSpace(in.Email)
	role := strings.TrimSpace(in.Role)

	missing := map[string]any{}
	if name == "" {
		missing["name"] = "required"
	}
	if email == "" {
		missing["email"] = "required"
	}
	if role == "" {
		missing["role"] = "required"
	}
	if len(missing) > 0 {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: "Missing required fields: name, email, and role are required",
			Details: missing,
		}
	}
	if err := validateEmail(email); err != nil {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: "Invalid email address",
			Details: map[string]any{"email": err.Error()},
		}
	}

	org, ok := admin.Org()
	if !ok {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "MISSING_ORG_ID",
			Message: "Admin user has no organization",
		}
	}

	log := s.log.With("admin_id", string(admin.ID), "organization_id", string(org))

	if _, exists, err := s.roster.FindByEmail(ctx, org, email); err != nil {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "ROSTER_READ_FAILED",
			Message: "Failed to check existing crew members",
			Err:     err,
		}
	} else if exists {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusConflict,
			Code:    "CREW_MEMBER_EXISTS",
			Message: "A crew member with this email already exists in your organization",
		}
	}

	outcome := success()
	if _, exists, err := s.identities.FindByEmail(ctx, email); err != nil {
		log.Warn("identity pre-check skipped", "error", err)
		outcome = successWithWarning("Could not verify whether an account with this email already exists")
	} else if exists {
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusConflict,
			Code:    "IDENTITY_EXISTS",
			Message: "A user with this email already exists",
		}
	}

	invited, err := s.identities.Invite(ctx, identity.Invitation{
		Email: email,
		Metadata: identity.Metadata{
			Role:           role,
			OrganizationID: org,
			Name:           name,
		},
		RedirectTo: s.redirectTo,
	})
	if err != nil {
		log.Error("identity invite failed", "error", err)
		return domain.CrewMember{}, Outcome{}, classifyIdentityError(err)
	}
	if invited.ID == "" {
		log.Error("identity invite returned no user")
		return domain.CrewMember{}, Outcome{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "IDENTITY_CREATE_FAILED",
			Message: "Failed to create user account",
		}
	}

	userID := invited.ID
	created, err := s.roster.Create(ctx, domain.CrewMember{
		ID:             s.newCrewMemberID(),
		Name:           name,
		Email:          email,
		Role:           role,
		OrganizationID: org,
		UserID:         &userID,
		CreatedAt:      s.clk.Now().UTC(),
	})
	if err != nil {
		// The identity is left in place; an operator has to reconcile it.
		log.Error("CRITICAL: identity created without roster row",
			"user_id", string(userID), "email", email, "error", err)
		return domain.CrewMember{}, Outcome{}, classifyRosterError(err)
	}

	log.Info("crew member added", "crew_member_id", string(created.ID), "user_id", string(userID))
	return created, outcome, nil
}

// RemoveCrewMember deletes the roster row and then, best effort, its linked identity.
func (s *Service) RemoveCrewMember(ctx context.Context, admin domain.Identity, id domain.CrewMemberID) (Outcome, error) {
	m, err := s.roster.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, crewrepo.ErrNotFound) {
			return Outcome{}, &Error{
				Status:  http.StatusNotFound,
				Code:    "CREW_MEMBER_NOT_FOUND",
				Message: "Crew member not found",
			}
		}
		return Outcome{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "ROSTER_READ_FAILED",
			Message: "Failed to load crew member",
			Err:     err,
		}
	}

	org, ok := admin.Org()
	if !ok || org != m.OrganizationID {
		return Outcome{}, &Error{
			Status:  http.StatusForbidden,
			Code:    "CROSS_ORG_FORBIDDEN",
			Message: "Cannot remove crew members from other organizations",
		}
	}

	log := s.log.With("admin_id", string(admin.ID), "crew_member_id", string(id))

	if err := s.roster.Delete(ctx, id); err != nil {
		if errors.Is(err, crewrepo.ErrNotFound) {
			return Outcome{}, &Error{
				Status:  http.StatusNotFound,
				Code:    "CREW_MEMBER_NOT_FOUND",
				Message: "Crew member not found",
			}
		}
		log.Error("roster delete failed", "error", err)
		return Outcome{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "ROSTER_DELETE_FAILED",
			Message: "Failed to delete crew member",
			Err:     err,
		}
	}

	if m.UserID == nil || *m.UserID == "" {
		log.Info("crew member removed")
		return success(), nil
	}
	if err := s.identities.Delete(ctx, *m.UserID); err != nil {
		log.Warn("identity delete failed after roster delete", "user_id", string(*m.UserID), "error", err)
		return successWithWarning(IdentityDeleteWarning), nil
	}
	log.Info("crew member removed", "user_id", string(*m.UserID))
	return success(), nil
}

func classifyIdentityError(err error) *Error {
	switch {
	case errors.Is(err, identity.ErrConflict):
		return &Error{Status: http.StatusConflict, Code: "IDENTITY_EXISTS", Message: "A user with this email already exists", Err: err}
	case errors.Is(err, identity.ErrForbidden):
		return &Error{Status: http.StatusForbidden, Code: "IDENTITY_CREATE_FORBIDDEN", Message: "Not allowed to create user accounts", Err: err}
	default:
		return &Error{Status: http.StatusInternalServerError, Code: "IDENTITY_CREATE_FAILED", Message: "Failed to create user account", Err: err}
	}
}

func classifyRosterError(err error) *Error {
	switch {
	case errors.Is(err, crewrepo.ErrConflict):
		return &Error{Status: http.StatusConflict, Code: "CREW_MEMBER_EXISTS", Message: "A crew member with this email already exists in your organization", Err: err}
	case errors.Is(err, crewrepo.ErrForbidden):
		return &Error{Status: http.StatusForbidden, Code: "ROSTER_INSERT_FORBIDDEN", Message: "Not allowed to add crew members", Err: err}
	default:
		return &Error{Status: http.StatusInternalServerError, Code: "ROSTER_INSERT_FAILED", Message: "Failed to create crew member record", Err: err}
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}
