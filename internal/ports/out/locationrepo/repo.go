package locationrepo

import (
	"context"
	"errors"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// ErrNotFound indicates no sample exists for the crew member.
var ErrNotFound = errors.New("no location found")

// Repository stores append-only location samples.
type Repository interface {
	Append(ctx context.Context, s domain.LocationSample) error

	// Latest returns the sample with the greatest timestamp for the crew member.
	// Ties are broken by the storage layer's natural order.
	Latest(ctx context.Context, crewMemberID domain.CrewMemberID) (domain.LocationSample, error)
}
