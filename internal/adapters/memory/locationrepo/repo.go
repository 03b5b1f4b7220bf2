package locationrepo

import (
	"context"
	"sync"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

// Repo is an in-memory implementation of locationrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu       sync.RWMutex
	byMember map[domain.CrewMemberID][]domain.LocationSample
}

func NewRepo() *Repo {
	return &Repo{byMember: make(map[domain.CrewMemberID][]domain.LocationSample)}
}

func (r *Repo) Append(ctx context.Context, s domain.LocationSample) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMember[s.CrewMemberID] = append(r.byMember[s.CrewMemberID], s)
	return nil
}

// Latest returns the newest sample; on equal timestamps the earliest appended wins.
func (r *Repo) Latest(ctx context.Context, crewMemberID domain.CrewMemberID) (domain.LocationSample, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples := r.byMember[crewMemberID]
	if len(samples) == 0 {
		return domain.LocationSample{}, locationrepo.ErrNotFound
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp.After(best.Timestamp) {
			best = s
		}
	}
	return best, nil
}
