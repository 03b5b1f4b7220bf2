package identity

import (
	"context"
	"fmt"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/supabase"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

// DefaultPageSize is the page size used when enumerating users by email.
const DefaultPageSize = 200

// Provider is an identity.Provider backed by the platform's admin auth API.
// It must be given a privileged client source.
type Provider struct {
	client   supabase.Source
	pageSize int
}

func NewProvider(client supabase.Source) *Provider {
	return &Provider{client: client, pageSize: DefaultPageSize}
}

// WithPageSize overrides the enumeration page size. Values below 1 are ignored.
func (p *Provider) WithPageSize(n int) *Provider {
	if n > 0 {
		p.pageSize = n
	}
	return p
}

func (p *Provider) GetByID(ctx context.Context, id domain.IdentityID) (domain.Identity, error) {
	c, err := p.client()
	if err != nil {
		return domain.Identity{}, err
	}
	u, err := c.AdminGetUser(ctx, string(id))
	if err != nil {
		return domain.Identity{}, mapError(err)
	}
	if u.ID == "" {
		return domain.Identity{}, identity.ErrNotFound
	}
	return toIdentity(u), nil
}

// FindByEmail pages through every user until it finds a match or runs out of pages.
func (p *Provider) FindByEmail(ctx context.Context, email string) (domain.Identity, bool, error) {
	c, err := p.client()
	if err != nil {
		return domain.Identity{}, false, err
	}
	want := domain.NormalizeEmail(email)
	for page := 1; ; page++ {
		users, err := c.AdminListUsers(ctx, page, p.pageSize)
		if err != nil {
			return domain.Identity{}, false, mapError(err)
		}
		for _, u := range users {
			if domain.NormalizeEmail(u.Email) == want {
				return toIdentity(u), true, nil
			}
		}
		if len(users) < p.pageSize {
			return domain.Identity{}, false, nil
		}
	}
}

func (p *Provider) Invite(ctx context.Context, inv identity.Invitation) (domain.Identity, error) {
	c, err := p.client()
	if err != nil {
		return domain.Identity{}, err
	}
	data := map[string]any{
		"role":            inv.Metadata.Role,
		"organization_id": string(inv.Metadata.OrganizationID),
		"name":            inv.Metadata.Name,
	}
	u, err := c.InviteUserByEmail(ctx, inv.Email, data, inv.RedirectTo)
	if err != nil {
		return domain.Identity{}, mapError(err)
	}
	return toIdentity(u), nil
}

func (p *Provider) Delete(ctx context.Context, id domain.IdentityID) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	if err := c.AdminDeleteUser(ctx, string(id)); err != nil {
		return mapError(err)
	}
	return nil
}

// toIdentity reads role, organization_id and name from user metadata.
// Non-string values are treated as absent.
func toIdentity(u supabase.User) domain.Identity {
	out := domain.Identity{
		ID:    domain.IdentityID(u.ID),
		Email: u.Email,
	}
	if v, ok := u.UserMetadata["role"].(string); ok {
		out.Role = &v
	}
	if v, ok := u.UserMetadata["organization_id"].(string); ok {
		org := domain.OrgID(v)
		out.OrganizationID = &org
	}
	if v, ok := u.UserMetadata["name"].(string); ok {
		out.Name = v
	}
	return out
}

func mapError(err error) error {
	switch supabase.KindOf(err) {
	case supabase.KindNotFound:
		return fmt.Errorf("%w: %v", identity.ErrNotFound, err)
	case supabase.KindConflict:
		return fmt.Errorf("%w: %v", identity.ErrConflict, err)
	case supabase.KindForbidden, supabase.KindUnauthorized:
		return fmt.Errorf("%w: %v", identity.ErrForbidden, err)
	default:
		return err
	}
}
