package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/clock"
	memcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/crewrepo"
	memidempotency "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/idempotency"
	memidentity "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/identity"
	memlocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/locationrepo"
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
)

const testSecret = "test-jwt-secret"

type harness struct {
	t      *testing.T
	router *Router
	crew   *memcrewrepo.Repo
	ids    *memidentity.Provider
	clk    *memclock.ManualClock
	hub    *ws.Hub
}

type harnessOptions struct {
	secret        string
	ratePerMinute int
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithOptions(t, harnessOptions{secret: testSecret})
}

func newHarnessWithOptions(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	crewRepo := memcrewrepo.NewRepo()
	locRepo := memlocationrepo.NewRepo()
	ids := memidentity.NewProvider()
	hub := ws.NewHub(logging.Discard())
	log := logging.Discard()

	tokens := jwtverifier.NewWithOptions(config.JWTConfig{Secret: opts.secret, ClockSkew: time.Second}, clk)
	rt := NewRouter(Deps{
		Locations: locations.NewService(locRepo, hub, clk, log),
		Crew: crew.NewService(crew.Deps{
			Roster:      crewRepo,
			Identities:  ids,
			Clock:       clk,
			Logger:      log,
			FrontendURL: "http://localhost:5173",
		}),
		Users:                 users.NewService(ids, log),
		Verifier:              authn.NewVerifier(tokens, ids),
		Idempotency:           memidempotency.NewStore(),
		Hub:                   hub,
		LocationRatePerMinute: opts.ratePerMinute,
		Clock:                 clk,
		Logger:                log,
	})
	t.Cleanup(rt.Close)
	t.Cleanup(hub.Close)

	return &harness{t: t, router: rt, crew: crewRepo, ids: ids, clk: clk, hub: hub}
}

// putUser stores an identity with the given role and org claims ("" means absent).
func (h *harness) putUser(id, role, org string) domain.Identity {
	h.t.Helper()
	ident := domain.Identity{ID: domain.IdentityID(id), Email: id + "@example.com"}
	if role != "" {
		ident.Role = &role
	}
	if org != "" {
		o := domain.OrgID(org)
		ident.OrganizationID = &o
	}
	h.ids.Put(ident)
	return ident
}

func (h *harness) token(sub string) string {
	h.t.Helper()
	tok, err := jwt_testutil.MintHS256JWT(testSecret, "authenticated", sub, h.clk.Now(), time.Hour)
	if err != nil {
		h.t.Fatalf("mint: %v", err)
	}
	return tok
}

func (h *harness) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status=%d, want %d; body=%s", rr.Code, status, rr.Body.String())
	}
}

func wantErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	wantStatus(t, rr, status)
	eb := decode[errorBody](t, rr)
	if eb.Code != code {
		t.Fatalf("code=%q, want %q; body=%s", eb.Code, code, rr.Body.String())
	}
	return eb
}

// ensure the handler satisfies http.Handler.
var _ http.Handler = (*Router)(nil)

func mintExpired(h *harness, sub string) (string, error) {
	return jwt_testutil.MintHS256JWT(testSecret, "authenticated", sub, h.clk.Now().Add(-2*time.Hour), time.Hour)
}

func mintWithSecret(h *harness, secret, sub string) (string, error) {
	return jwt_testutil.MintHS256JWT(secret, "authenticated", sub, h.clk.Now(), time.Hour)
}
