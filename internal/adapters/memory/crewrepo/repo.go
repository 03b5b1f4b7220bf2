package crewrepo

import (
	"context"
	"sync"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
)

// Repo is an in-memory implementation of crewrepo.Repository.
// Insertion order is the storage-native order. It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	order []domain.CrewMemberID
	byID  map[domain.CrewMemberID]domain.CrewMember
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.CrewMemberID]domain.CrewMember),
	}
}

func (r *Repo) Create(ctx context.Context, m domain.CrewMember) (domain.CrewMember, error) {
	_ = ctx
	if m.ID == "" {
		return domain.CrewMember{}, crewrepo.ErrNoRow
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return domain.CrewMember{}, crewrepo.ErrConflict
	}
	email := domain.NormalizeEmail(m.Email)
	for _, existing := range r.byID {
		if existing.OrganizationID == m.OrganizationID && domain.NormalizeEmail(existing.Email) == email {
			return domain.CrewMember{}, crewrepo.ErrConflict
		}
	}

	stored := cloneCrewMember(m)
	r.byID[m.ID] = stored
	r.order = append(r.order, m.ID)
	return cloneCrewMember(stored), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.CrewMemberID) (domain.CrewMember, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.CrewMember{}, crewrepo.ErrNotFound
	}
	return cloneCrewMember(m), nil
}

func (r *Repo) FindByEmail(ctx context.Context, org domain.OrgID, email string) (domain.CrewMember, bool, error) {
	_ = ctx
	want := domain.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		m := r.byID[id]
		if m.OrganizationID == org && domain.NormalizeEmail(m.Email) == want {
			return cloneCrewMember(m), true, nil
		}
	}
	return domain.CrewMember{}, false, nil
}

func (r *Repo) ListByOrganization(ctx context.Context, org domain.OrgID) ([]domain.CrewMember, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CrewMember, 0)
	for _, id := range r.order {
		m := r.byID[id]
		if m.OrganizationID == org {
			out = append(out, cloneCrewMember(m))
		}
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.CrewMemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return crewrepo.ErrNotFound
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneCrewMember(m domain.CrewMember) domain.CrewMember {
	out := m
	if m.UserID != nil {
		v := *m.UserID
		out.UserID = &v
	}
	return out
}
