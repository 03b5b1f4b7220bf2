package crewrepo

import (
	"context"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// Reader is the read-only roster surface used by the public listing endpoint.
type Reader interface {
	// ListByOrganization returns every crew member of the organization in storage-native order.
	// An organization with no members yields an empty, non-nil slice.
	ListByOrganization(ctx context.Context, org domain.OrgID) ([]domain.CrewMember, error)
}

// Repository provides access to persisted crew members.
type Repository interface {
	Reader

	// Create inserts m and returns the stored row.
	Create(ctx context.Context, m domain.CrewMember) (domain.CrewMember, error)
	GetByID(ctx context.Context, id domain.CrewMemberID) (domain.CrewMember, error)
	// FindByEmail performs a case-insensitive lookup within one organization.
	FindByEmail(ctx context.Context, org domain.OrgID, email string) (domain.CrewMember, bool, error)
	Delete(ctx context.Context, id domain.CrewMemberID) error
}
