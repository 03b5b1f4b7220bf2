package locationrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

// Repo is a Postgres implementation of locationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Append(ctx context.Context, s domain.LocationSample) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return fmt.Errorf("invalid location id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO crew_locations (id, crew_member_id, latitude, longitude, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, id, string(s.CrewMemberID), s.Latitude, s.Longitude, s.Timestamp.UTC())
	return err
}

// Latest returns the newest sample; ties on timestamp resolve to the first inserted.
func (r *Repo) Latest(ctx context.Context, crewMemberID domain.CrewMemberID) (domain.LocationSample, error) {
	if r.pool == nil {
		return domain.LocationSample{}, errors.New("nil postgres pool")
	}
	var (
		id  uuid.UUID
		out domain.LocationSample
		cm  string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, crew_member_id, latitude, longitude, timestamp
		FROM crew_locations
		WHERE crew_member_id = $1
		ORDER BY timestamp DESC, seq ASC
		LIMIT 1
	`, string(crewMemberID)).Scan(&id, &cm, &out.Latitude, &out.Longitude, &out.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LocationSample{}, locationrepo.ErrNotFound
		}
		return domain.LocationSample{}, err
	}
	out.ID = domain.LocationID(id.String())
	out.CrewMemberID = domain.CrewMemberID(cm)
	out.Timestamp = out.Timestamp.UTC()
	return out, nil
}
