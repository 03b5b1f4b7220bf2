package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

// Provider is an in-memory identity store used for local development and tests.
// Failures can be injected per operation. It is safe for concurrent use.
type Provider struct {
	mu   sync.RWMutex
	byID map[domain.IdentityID]domain.Identity

	findErr   error
	inviteErr error
	deleteErr error

	invites []identity.Invitation
}

func NewProvider() *Provider {
	return &Provider{byID: make(map[domain.IdentityID]domain.Identity)}
}

// Put stores or replaces an identity.
func (p *Provider) Put(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[id.ID] = cloneIdentity(id)
}

// FailFindByEmail makes FindByEmail return err until cleared with nil.
func (p *Provider) FailFindByEmail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.findErr = err
}

// FailInvite makes Invite return err until cleared with nil.
func (p *Provider) FailInvite(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inviteErr = err
}

// FailDelete makes Delete return err until cleared with nil.
func (p *Provider) FailDelete(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteErr = err
}

// Invitations returns every successful invitation, oldest first.
func (p *Provider) Invitations() []identity.Invitation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]identity.Invitation(nil), p.invites...)
}

func (p *Provider) GetByID(ctx context.Context, id domain.IdentityID) (domain.Identity, error) {
	_ = ctx
	p.mu.RLock()
	defer p.mu.RUnlock()
	got, ok := p.byID[id]
	if !ok {
		return domain.Identity{}, identity.ErrNotFound
	}
	return cloneIdentity(got), nil
}

func (p *Provider) FindByEmail(ctx context.Context, email string) (domain.Identity, bool, error) {
	_ = ctx
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.findErr != nil {
		return domain.Identity{}, false, p.findErr
	}
	want := domain.NormalizeEmail(email)
	for _, id := range p.byID {
		if domain.NormalizeEmail(id.Email) == want {
			return cloneIdentity(id), true, nil
		}
	}
	return domain.Identity{}, false, nil
}

func (p *Provider) Invite(ctx context.Context, inv identity.Invitation) (domain.Identity, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inviteErr != nil {
		return domain.Identity{}, p.inviteErr
	}
	want := domain.NormalizeEmail(inv.Email)
	for _, existing := range p.byID {
		if domain.NormalizeEmail(existing.Email) == want {
			return domain.Identity{}, identity.ErrConflict
		}
	}

	role := inv.Metadata.Role
	org := inv.Metadata.OrganizationID
	created := domain.Identity{
		ID:             domain.IdentityID(uuid.NewString()),
		Email:          inv.Email,
		Name:           inv.Metadata.Name,
		Role:           &role,
		OrganizationID: &org,
	}
	p.byID[created.ID] = created
	p.invites = append(p.invites, inv)
	return cloneIdentity(created), nil
}

func (p *Provider) Delete(ctx context.Context, id domain.IdentityID) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	if _, ok := p.byID[id]; !ok {
		return identity.ErrNotFound
	}
	delete(p.byID, id)
	return nil
}

func cloneIdentity(id domain.Identity) domain.Identity {
	out := id
	if id.Role != nil {
		v := *id.Role
		out.Role = &v
	}
	if id.OrganizationID != nil {
		v := *id.OrganizationID
		out.OrganizationID = &v
	}
	return out
}
