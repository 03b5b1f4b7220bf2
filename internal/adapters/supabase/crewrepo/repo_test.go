package crewrepo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/supabase"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
)

func newRepo(t *testing.T, h http.HandlerFunc) *Repo {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := supabase.NewClient(srv.URL, "service-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewRepo(func() (*supabase.Client, error) { return c, nil })
}

func TestRepo_ListByOrganization_FiltersAndDecodes(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/v1/crew_members" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("organization_id"); got != "eq.org-1" {
			t.Errorf("organization filter=%q", got)
		}
		_, _ = w.Write([]byte(`[
			{"id":"c1","name":"Ann","email":"ann@example.com","role":"Driver","organization_id":"org-1","user_id":"u1","created_at":"2024-05-01T10:00:00.123456+00:00"},
			{"id":"c2","name":"Ben","email":"ben@example.com","role":"Tech","organization_id":"org-1","user_id":null,"created_at":"2024-05-01T11:00:00+00:00"}
		]`))
	})

	got, err := repo.ListByOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListByOrganization: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].UserID == nil || *got[0].UserID != "u1" {
		t.Fatalf("expected user id u1, got %#v", got[0].UserID)
	}
	if got[1].UserID != nil {
		t.Fatalf("expected nil user id, got %v", *got[1].UserID)
	}
}

func TestRepo_ListByOrganization_EmptyIsNonNil(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	got, err := repo.ListByOrganization(context.Background(), "org-x")
	if err != nil {
		t.Fatalf("ListByOrganization: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRepo_Create_SendsRowAndMapsConflict(t *testing.T) {
	t.Parallel()

	var sent map[string]any
	calls := 0
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Prefer=%q", r.Header.Get("Prefer"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &sent)
		if calls == 1 {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[` + string(body) + `]`))
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})

	uid := domain.IdentityID("u-9")
	m := domain.CrewMember{
		ID:             "c-9",
		Name:           "Dana",
		Email:          "dana@example.com",
		Role:           "Driver",
		OrganizationID: "org-1",
		UserID:         &uid,
		CreatedAt:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	created, err := repo.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sent["user_id"] != "u-9" || sent["organization_id"] != "org-1" {
		t.Fatalf("unexpected row sent: %#v", sent)
	}
	if created.ID != "c-9" || created.UserID == nil || *created.UserID != uid {
		t.Fatalf("unexpected created member: %#v", created)
	}

	if _, err := repo.Create(context.Background(), m); !errors.Is(err, crewrepo.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRepo_GetByID_NotFoundCases(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.not-a-uuid" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"22P02","message":"invalid input syntax for type uuid"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	for _, id := range []domain.CrewMemberID{"not-a-uuid", "2b6f0cc9-5d4c-4a8d-9c57-4a0f2f6f0e11"} {
		if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, crewrepo.ErrNotFound) {
			t.Fatalf("GetByID(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestRepo_FindByEmail_EscapesPattern(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != `ilike.first\_last@example.com` {
			t.Errorf("email filter=%q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	_, ok, err := repo.FindByEmail(context.Background(), "org-1", " First_Last@Example.com ")
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestRepo_Delete_EmptyRepresentationIsNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method=%s", r.Method)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	if err := repo.Delete(context.Background(), "c-1"); !errors.Is(err, crewrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_SourceErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := NewRepo(func() (*supabase.Client, error) { return nil, supabase.ErrNotConfigured })
	if _, err := repo.ListByOrganization(context.Background(), "org-1"); !errors.Is(err, supabase.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
