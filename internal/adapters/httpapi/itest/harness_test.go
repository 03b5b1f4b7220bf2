package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/httpapi"
	memclock "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/clock"
	memcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/crewrepo"
	memidempotency "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/idempotency"
	memidentity "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/identity"
	memlocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/locationrepo"
	pgcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/crewrepo"
	pgidempotency "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/idempotency"
	pglocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/locationrepo"
	postgres_testutil "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/testutil"
	"github.com/fieldcrew/crew-tracker-api/internal/adapters/ws"
	"github.com/fieldcrew/crew-tracker-api/internal/app/authn"
	"github.com/fieldcrew/crew-tracker-api/internal/app/crew"
	"github.com/fieldcrew/crew-tracker-api/internal/app/locations"
	"github.com/fieldcrew/crew-tracker-api/internal/app/users"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/auth/jwt_testutil"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/auth/jwtverifier"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/config"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/logging"
	crewrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
	idempotencyport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
	locationrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

const jwtSecret = "itest-secret"

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	clk     *memclock.ManualClock
	ids     *memidentity.Provider
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := logging.Discard()

	var (
		crewRepo  crewrepoport.Repository
		locRepo   locationrepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		crewRepo = pgcrewrepo.NewRepo(pool)
		locRepo = pglocationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		crewRepo = memcrewrepo.NewRepo()
		locRepo = memlocationrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	// Identities always live in memory; the identity platform has no local stand-in.
	ids := memidentity.NewProvider()
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)

	tokens := jwtverifier.NewWithOptions(config.JWTConfig{Secret: jwtSecret}, clk)
	router := httpapi.NewRouter(httpapi.Deps{
		Locations: locations.NewService(locRepo, hub, clk, log),
		Crew: crew.NewService(crew.Deps{
			Roster:      crewRepo,
			Identities:  ids,
			Clock:       clk,
			Logger:      log,
			FrontendURL: "http://frontend.test",
		}),
		Users:       users.NewService(ids, log),
		Verifier:    authn.NewVerifier(tokens, ids),
		Idempotency: idemStore,
		Hub:         hub,
		Clock:       clk,
		Logger:      log,
	})
	t.Cleanup(router.Close)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		clk:     clk,
		ids:     ids,
	}
}

func (s *testServer) seedIdentity(id, role, org string) {
	ident := domain.Identity{ID: domain.IdentityID(id), Email: id + "@example.com"}
	if role != "" {
		ident.Role = &role
	}
	if org != "" {
		o := domain.OrgID(org)
		ident.OrganizationID = &o
	}
	s.ids.Put(ident)
}

func (s *testServer) token(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt_testutil.MintHS256JWT(jwtSecret, "authenticated", sub, s.clk.Now(), time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Code != wantCode {
		t.Fatalf("code=%q want=%q body=%s", got.Code, wantCode, string(body))
	}
	if got.RequestID == "" {
		t.Fatalf("expected request_id; body=%s", string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

func mustJSON(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}
