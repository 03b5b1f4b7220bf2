package identity

import (
	"context"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// Metadata is written onto a newly invited identity.
type Metadata struct {
	Role           string
	OrganizationID domain.OrgID
	Name           string
}

// Invitation describes an identity to create through the platform's invite flow.
type Invitation struct {
	Email    string
	Metadata Metadata
	// RedirectTo is where the invite email sends the user to set credentials.
	RedirectTo string
}

// Provider manages platform identities. Implementations use privileged credentials.
type Provider interface {
	GetByID(ctx context.Context, id domain.IdentityID) (domain.Identity, error)

	// FindByEmail enumerates identities across the whole platform, comparing emails case-insensitively.
	FindByEmail(ctx context.Context, email string) (domain.Identity, bool, error)

	Invite(ctx context.Context, inv Invitation) (domain.Identity, error)
	Delete(ctx context.Context, id domain.IdentityID) error
}
