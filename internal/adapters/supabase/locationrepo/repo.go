package locationrepo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/supabase"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

const table = "crew_locations"

type row struct {
	ID           string    `json:"id,omitempty"`
	CrewMemberID string    `json:"crew_member_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

// Repo is a locationrepo.Repository backed by the crew_locations table.
type Repo struct {
	client supabase.Source
}

func NewRepo(client supabase.Source) *Repo {
	return &Repo{client: client}
}

func (r *Repo) Append(ctx context.Context, s domain.LocationSample) error {
	c, err := r.client()
	if err != nil {
		return err
	}
	in := row{
		ID:           string(s.ID),
		CrewMemberID: string(s.CrewMemberID),
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Timestamp:    s.Timestamp.UTC(),
	}
	if err := c.Insert(ctx, table, in, nil); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *Repo) Latest(ctx context.Context, crewMemberID domain.CrewMemberID) (domain.LocationSample, error) {
	c, err := r.client()
	if err != nil {
		return domain.LocationSample{}, err
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("crew_member_id", supabase.Eq(string(crewMemberID)))
	q.Set("order", "timestamp.desc")
	q.Set("limit", "1")
	var out []row
	if err := c.Select(ctx, table, q, &out); err != nil {
		if supabase.IsInvalidID(err) {
			return domain.LocationSample{}, locationrepo.ErrNotFound
		}
		return domain.LocationSample{}, fmt.Errorf("select latest location: %w", err)
	}
	if len(out) == 0 {
		return domain.LocationSample{}, locationrepo.ErrNotFound
	}
	rw := out[0]
	return domain.LocationSample{
		ID:           domain.LocationID(rw.ID),
		CrewMemberID: domain.CrewMemberID(rw.CrewMemberID),
		Latitude:     rw.Latitude,
		Longitude:    rw.Longitude,
		Timestamp:    rw.Timestamp.UTC(),
	}, nil
}
