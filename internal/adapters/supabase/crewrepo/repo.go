package crewrepo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/supabase"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
)

const table = "crew_members"

type row struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Email          string                    `json:"email"`
	Role           string                    `json:"role"`
	OrganizationID string                    `json:"organization_id"`
	UserID         nullable.Nullable[string] `json:"user_id"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// Repo is a crewrepo.Repository backed by the platform's crew_members table.
//
// The client source decides the privilege level: a restricted source is enough
// for listing, roster changes need a privileged one.
type Repo struct {
	client supabase.Source
}

func NewRepo(client supabase.Source) *Repo {
	return &Repo{client: client}
}

func (r *Repo) Create(ctx context.Context, m domain.CrewMember) (domain.CrewMember, error) {
	c, err := r.client()
	if err != nil {
		return domain.CrewMember{}, err
	}
	in := toRow(m)
	var out []row
	if err := c.Insert(ctx, table, in, &out); err != nil {
		return domain.CrewMember{}, mapError(err)
	}
	if len(out) == 0 {
		return domain.CrewMember{}, crewrepo.ErrNoRow
	}
	return fromRow(out[0]), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CrewMemberID) (domain.CrewMember, error) {
	c, err := r.client()
	if err != nil {
		return domain.CrewMember{}, err
	}
	q := url.Values{}
	q.Set("id", supabase.Eq(string(id)))
	q.Set("limit", "1")
	var out []row
	if err := c.Select(ctx, table, q, &out); err != nil {
		if supabase.IsInvalidID(err) {
			return domain.CrewMember{}, crewrepo.ErrNotFound
		}
		return domain.CrewMember{}, mapError(err)
	}
	if len(out) == 0 {
		return domain.CrewMember{}, crewrepo.ErrNotFound
	}
	return fromRow(out[0]), nil
}

func (r *Repo) FindByEmail(ctx context.Context, org domain.OrgID, email string) (domain.CrewMember, bool, error) {
	c, err := r.client()
	if err != nil {
		return domain.CrewMember{}, false, err
	}
	q := url.Values{}
	q.Set("organization_id", supabase.Eq(string(org)))
	q.Set("email", supabase.ILike(escapeLike(domain.NormalizeEmail(email))))
	q.Set("limit", "1")
	var out []row
	if err := c.Select(ctx, table, q, &out); err != nil {
		return domain.CrewMember{}, false, mapError(err)
	}
	if len(out) == 0 {
		return domain.CrewMember{}, false, nil
	}
	return fromRow(out[0]), true, nil
}

func (r *Repo) ListByOrganization(ctx context.Context, org domain.OrgID) ([]domain.CrewMember, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("organization_id", supabase.Eq(string(org)))
	var out []row
	if err := c.Select(ctx, table, q, &out); err != nil {
		return nil, mapError(err)
	}
	members := make([]domain.CrewMember, 0, len(out))
	for _, rw := range out {
		members = append(members, fromRow(rw))
	}
	return members, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.CrewMemberID) error {
	c, err := r.client()
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("id", supabase.Eq(string(id)))
	var out []row
	if err := c.Delete(ctx, table, q, &out); err != nil {
		if supabase.IsInvalidID(err) {
			return crewrepo.ErrNotFound
		}
		return mapError(err)
	}
	if len(out) == 0 {
		return crewrepo.ErrNotFound
	}
	return nil
}

func toRow(m domain.CrewMember) row {
	out := row{
		ID:             string(m.ID),
		Name:           m.Name,
		Email:          m.Email,
		Role:           m.Role,
		OrganizationID: string(m.OrganizationID),
		UserID:         nullable.NewNullNullable[string](),
		CreatedAt:      m.CreatedAt.UTC(),
	}
	if m.UserID != nil {
		out.UserID = nullable.NewNullableWithValue(string(*m.UserID))
	}
	return out
}

func fromRow(rw row) domain.CrewMember {
	out := domain.CrewMember{
		ID:             domain.CrewMemberID(rw.ID),
		Name:           rw.Name,
		Email:          rw.Email,
		Role:           rw.Role,
		OrganizationID: domain.OrgID(rw.OrganizationID),
		CreatedAt:      rw.CreatedAt.UTC(),
	}
	if v, err := rw.UserID.Get(); err == nil && v != "" {
		id := domain.IdentityID(v)
		out.UserID = &id
	}
	return out
}

func mapError(err error) error {
	switch supabase.KindOf(err) {
	case supabase.KindConflict:
		return fmt.Errorf("%w: %v", crewrepo.ErrConflict, err)
	case supabase.KindForbidden, supabase.KindUnauthorized:
		return fmt.Errorf("%w: %v", crewrepo.ErrForbidden, err)
	default:
		return err
	}
}

// escapeLike neutralizes LIKE wildcards so ilike acts as a case-insensitive equality.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)
	return r.Replace(s)
}
