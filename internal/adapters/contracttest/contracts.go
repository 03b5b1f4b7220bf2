package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	crewrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
	idempotencyport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
	identityport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
	locationrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

type CleanupFunc = func()

type CrewRepoFactory func(t *testing.T) (crewrepoport.Repository, CleanupFunc)
type LocationRepoFactory func(t *testing.T) (locationrepoport.Repository, CleanupFunc)
type IdentityProviderFactory func(t *testing.T) (identityport.Provider, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.IdentityID("admin-1"),
		Method:   "POST",
		Route:    "/crew-members",
		BodyHash: "abc",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"1"}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different body hash is a different fingerprint.
	other := fp
	other.BodyHash = "def"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for other body hash, got ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":"2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":"2"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunCrewRepo(t *testing.T, newRepo CrewRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	orgA := domain.OrgID("org-" + uuid.NewString())
	orgB := domain.OrgID("org-" + uuid.NewString())
	userID := domain.IdentityID(uuid.NewString())

	alice := domain.CrewMember{
		ID:             domain.CrewMemberID(uuid.NewString()),
		Name:           "Alice Johnson",
		Email:          "alice@example.com",
		Role:           "Field Tech",
		OrganizationID: orgA,
		UserID:         &userID,
		CreatedAt:      now,
	}
	created, err := repo.Create(ctx, alice)
	if err != nil {
		t.Fatalf("Create alice: %v", err)
	}
	if created.ID != alice.ID || created.UserID == nil || *created.UserID != userID {
		t.Fatalf("unexpected created row: %#v", created)
	}

	got, err := repo.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "alice@example.com" || got.OrganizationID != orgA {
		t.Fatalf("unexpected row: %#v", got)
	}
	if _, err := repo.GetByID(ctx, domain.CrewMemberID(uuid.NewString())); !errors.Is(err, crewrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Email lookup is scoped to the organization and case-insensitive.
	if _, ok, err := repo.FindByEmail(ctx, orgA, "ALICE@example.com"); err != nil || !ok {
		t.Fatalf("FindByEmail same org: ok=%v err=%v", ok, err)
	}
	if _, ok, err := repo.FindByEmail(ctx, orgB, "alice@example.com"); err != nil || ok {
		t.Fatalf("FindByEmail other org: ok=%v err=%v", ok, err)
	}

	// Duplicate email within an organization conflicts.
	dup := alice
	dup.ID = domain.CrewMemberID(uuid.NewString())
	dup.UserID = nil
	if _, err := repo.Create(ctx, dup); !errors.Is(err, crewrepoport.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The same email in a different organization is allowed.
	elsewhere := dup
	elsewhere.OrganizationID = orgB
	if _, err := repo.Create(ctx, elsewhere); err != nil {
		t.Fatalf("Create in other org: %v", err)
	}

	bob := domain.CrewMember{
		ID:             domain.CrewMemberID(uuid.NewString()),
		Name:           "Bob",
		Email:          "bob@example.com",
		Role:           "Driver",
		OrganizationID: orgA,
		CreatedAt:      now.Add(time.Second),
	}
	if _, err := repo.Create(ctx, bob); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	list, err := repo.ListByOrganization(ctx, orgA)
	if err != nil {
		t.Fatalf("ListByOrganization: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 members in orgA, got %#v", list)
	}
	for _, m := range list {
		if m.OrganizationID != orgA {
			t.Fatalf("foreign member in list: %#v", m)
		}
	}

	empty, err := repo.ListByOrganization(ctx, domain.OrgID("org-"+uuid.NewString()))
	if err != nil {
		t.Fatalf("ListByOrganization empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}

	if err := repo.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, alice.ID); !errors.Is(err, crewrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, alice.ID); !errors.Is(err, crewrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func RunLocationRepo(t *testing.T, newRepo LocationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	member := domain.CrewMemberID(uuid.NewString())
	if _, err := repo.Latest(ctx, member); !errors.Is(err, locationrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	base := time.Unix(2000, 0).UTC()
	samples := []domain.LocationSample{
		{ID: domain.LocationID(uuid.NewString()), CrewMemberID: member, Latitude: 1, Longitude: 1, Timestamp: base},
		{ID: domain.LocationID(uuid.NewString()), CrewMemberID: member, Latitude: 3, Longitude: 3, Timestamp: base.Add(2 * time.Minute)},
		{ID: domain.LocationID(uuid.NewString()), CrewMemberID: member, Latitude: 2, Longitude: 2, Timestamp: base.Add(time.Minute)},
	}
	for _, s := range samples {
		if err := repo.Append(ctx, s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	other := domain.CrewMemberID(uuid.NewString())
	if err := repo.Append(ctx, domain.LocationSample{
		ID: domain.LocationID(uuid.NewString()), CrewMemberID: other, Latitude: 9, Longitude: 9, Timestamp: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Append other: %v", err)
	}

	latest, err := repo.Latest(ctx, member)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Latitude != 3 || latest.Longitude != 3 || !latest.Timestamp.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected latest sample: %#v", latest)
	}
}

func RunIdentityProvider(t *testing.T, newProvider IdentityProviderFactory) {
	t.Helper()
	ctx := context.Background()

	p, cleanup := newProvider(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	email := "crew-" + uuid.NewString() + "@example.com"
	if _, ok, err := p.FindByEmail(ctx, email); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	created, err := p.Invite(ctx, identityport.Invitation{
		Email:      email,
		Metadata:   identityport.Metadata{Role: "Driver", OrganizationID: "org-1", Name: "Dana"},
		RedirectTo: "http://localhost:5173/set-password",
	})
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected identity id")
	}

	found, ok, err := p.FindByEmail(ctx, email)
	if err != nil || !ok || found.ID != created.ID {
		t.Fatalf("FindByEmail after invite: ok=%v err=%v found=%#v", ok, err, found)
	}
	got, err := p.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if org, ok := got.Org(); !ok || org != "org-1" {
		t.Fatalf("expected org-1 claim, got %#v", got)
	}

	if _, err := p.Invite(ctx, identityport.Invitation{Email: email}); !errors.Is(err, identityport.ErrConflict) {
		t.Fatalf("expected ErrConflict on second invite, got %v", err)
	}

	if err := p.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := p.GetByID(ctx, created.ID); !errors.Is(err, identityport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := p.Delete(ctx, created.ID); !errors.Is(err, identityport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
