package locationrepo

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
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

func TestRepo_AppendAndLatest(t *testing.T) {
	t.Parallel()

	var inserted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/crew_locations" {
			t.Errorf("path=%q", r.URL.Path)
		}
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &inserted)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			q := r.URL.Query()
			if q.Get("order") != "timestamp.desc" || q.Get("limit") != "1" {
				t.Errorf("query=%v", q)
			}
			if q.Get("crew_member_id") == "eq.nobody" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"id":"l1","crew_member_id":"c1","latitude":37.5,"longitude":-122.25,"timestamp":"2024-05-01T10:00:00+00:00"}]`))
		}
	}))
	t.Cleanup(srv.Close)

	c, err := supabase.NewClient(srv.URL, "anon-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	repo := NewRepo(func() (*supabase.Client, error) { return c, nil })
	ctx := context.Background()

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Append(ctx, domain.LocationSample{ID: "l1", CrewMemberID: "c1", Latitude: 37.5, Longitude: -122.25, Timestamp: ts}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if inserted["crew_member_id"] != "c1" || inserted["latitude"] != 37.5 {
		t.Fatalf("unexpected insert body: %#v", inserted)
	}

	got, err := repo.Latest(ctx, "c1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Longitude != -122.25 || !got.Timestamp.Equal(ts) {
		t.Fatalf("unexpected sample: %#v", got)
	}

	if _, err := repo.Latest(ctx, "nobody"); !errors.Is(err, locationrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_LatestMalformedIDIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"22P02","message":"invalid input syntax for type uuid: \"not-a-uuid\""}`))
	}))
	t.Cleanup(srv.Close)

	c, err := supabase.NewClient(srv.URL, "anon-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	repo := NewRepo(func() (*supabase.Client, error) { return c, nil })

	if _, err := repo.Latest(context.Background(), "not-a-uuid"); !errors.Is(err, locationrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_LatestUpstreamFailureIsNotNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"boom"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := supabase.NewClient(srv.URL, "anon-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	repo := NewRepo(func() (*supabase.Client, error) { return c, nil })

	_, err = repo.Latest(context.Background(), "c1")
	if err == nil || errors.Is(err, locationrepo.ErrNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
