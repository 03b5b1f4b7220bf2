package crewrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
)

const columns = `id, name, email, role, organization_id, user_id, created_at`

// Repo is a Postgres implementation of crewrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, m domain.CrewMember) (domain.CrewMember, error) {
	if r.pool == nil {
		return domain.CrewMember{}, errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return domain.CrewMember{}, fmt.Errorf("invalid crew member id: %w", err)
	}
	var userID *string
	if m.UserID != nil {
		v := string(*m.UserID)
		userID = &v
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO crew_members (id, name, email, role, organization_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+columns,
		id,
		m.Name,
		m.Email,
		m.Role,
		string(m.OrganizationID),
		userID,
		m.CreatedAt.UTC(),
	)
	out, err := scanCrewMember(row)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return domain.CrewMember{}, fmt.Errorf("%w: %s", crewrepo.ErrConflict, pe.ConstraintName)
		}
		return domain.CrewMember{}, err
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CrewMemberID) (domain.CrewMember, error) {
	if r.pool == nil {
		return domain.CrewMember{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.CrewMember{}, crewrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM crew_members WHERE id = $1`, uid)
	out, err := scanCrewMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CrewMember{}, crewrepo.ErrNotFound
		}
		return domain.CrewMember{}, err
	}
	return out, nil
}

func (r *Repo) FindByEmail(ctx context.Context, org domain.OrgID, email string) (domain.CrewMember, bool, error) {
	if r.pool == nil {
		return domain.CrewMember{}, false, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+columns+`
		FROM crew_members
		WHERE organization_id = $1 AND lower(email) = $2
		LIMIT 1
	`, string(org), domain.NormalizeEmail(email))
	out, err := scanCrewMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CrewMember{}, false, nil
		}
		return domain.CrewMember{}, false, err
	}
	return out, true, nil
}

func (r *Repo) ListByOrganization(ctx context.Context, org domain.OrgID) ([]domain.CrewMember, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+columns+`
		FROM crew_members
		WHERE organization_id = $1
		ORDER BY created_at, id
	`, string(org))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CrewMember, 0)
	for rows.Next() {
		m, err := scanCrewMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id domain.CrewMemberID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return crewrepo.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM crew_members WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return crewrepo.ErrNotFound
	}
	return nil
}

func scanCrewMember(row pgx.Row) (domain.CrewMember, error) {
	var (
		id     uuid.UUID
		m      domain.CrewMember
		org    string
		userID *string
	)
	if err := row.Scan(&id, &m.Name, &m.Email, &m.Role, &org, &userID, &m.CreatedAt); err != nil {
		return domain.CrewMember{}, err
	}
	m.ID = domain.CrewMemberID(id.String())
	m.OrganizationID = domain.OrgID(org)
	m.CreatedAt = m.CreatedAt.UTC()
	if userID != nil {
		v := domain.IdentityID(*userID)
		m.UserID = &v
	}
	return m, nil
}
