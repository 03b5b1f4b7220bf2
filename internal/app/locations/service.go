package locations

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationfeed"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

// MissingDataMessage is returned for any absent or unusable field in a location report.
const MissingDataMessage = "Missing required location data"

// RecordInput is a location report. Nil fields were absent from the request.
type RecordInput struct {
	CrewMemberID *string
	Latitude     *float64
	Longitude    *float64
}

type Service struct {
	repo locationrepo.Repository
	feed locationfeed.Publisher
	clk  clockport.Clock
	log  *slog.Logger

	newLocationID func() domain.LocationID
}

// NewService builds the location service. feed may be nil.
func NewService(repo locationrepo.Repository, feed locationfeed.Publisher, clk clockport.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo: repo,
		feed: feed,
		clk:  clk,
		log:  logger,
		newLocationID: func() domain.LocationID {
			return domain.LocationID(uuid.NewString())
		},
	}
}

// Record appends a sample stamped with the server clock and publishes it to live subscribers.
func (s *Service) Record(ctx context.Context, in RecordInput) (domain.LocationSample, error) {
	if in.CrewMemberID == nil || strings.TrimSpace(*in.CrewMemberID) == "" || in.Latitude == nil || in.Longitude == nil {
		return domain.LocationSample{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: MissingDataMessage,
		}
	}
	lat, lon := *in.Latitude, *in.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.LocationSample{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: "Coordinates out of range",
			Details: map[string]any{"latitude": "must be within [-90, 90]", "longitude": "must be within [-180, 180]"},
		}
	}

	sample := domain.LocationSample{
		ID:           s.newLocationID(),
		CrewMemberID: domain.CrewMemberID(strings.TrimSpace(*in.CrewMemberID)),
		Latitude:     lat,
		Longitude:    lon,
		Timestamp:    s.clk.Now().UTC(),
	}
	if err := s.repo.Append(ctx, sample); err != nil {
		s.log.Error("location append failed", "crew_member_id", string(sample.CrewMemberID), "error", err)
		return domain.LocationSample{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "LOCATION_WRITE_FAILED",
			Message: "Failed to update location",
			Err:     err,
		}
	}
	if s.feed != nil {
		s.feed.Publish(sample)
	}
	return sample, nil
}

// Current returns the newest sample for the crew member.
func (s *Service) Current(ctx context.Context, crewMemberID domain.CrewMemberID) (domain.LocationSample, error) {
	sample, err := s.repo.Latest(ctx, crewMemberID)
	if err != nil {
		if errors.Is(err, locationrepo.ErrNotFound) {
			return domain.LocationSample{}, &Error{
				Status:  http.StatusNotFound,
				Code:    "LOCATION_NOT_FOUND",
				Message: "No location found",
			}
		}
		return domain.LocationSample{}, &Error{
			Status:  http.StatusInternalServerError,
			Code:    "LOCATION_READ_FAILED",
			Message: "Failed to load location",
			Err:     err,
		}
	}
	return sample, nil
}
