package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/ws"
	"github.com/fieldcrew/crew-tracker-api/internal/app/crew"
	"github.com/fieldcrew/crew-tracker-api/internal/app/locations"
	"github.com/fieldcrew/crew-tracker-api/internal/app/users"
	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
)

const locationRateWindow = time.Minute

// Deps wires the router to the application services.
type Deps struct {
	Locations *locations.Service
	Crew      *crew.Service
	Users     *users.Service

	Verifier IdentityVerifier
	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency idempotency.Store
	// Hub is optional; without it the stream endpoint is not mounted.
	Hub *ws.Hub

	// Limiter defaults to an in-memory limiter when LocationRatePerMinute > 0.
	Limiter               RateLimiter
	LocationRatePerMinute int

	Clock  clockport.Clock
	Logger *slog.Logger
}

// Router is the API HTTP handler.
type Router struct {
	mux      chi.Router
	log      *slog.Logger
	metrics  *metrics
	upgrader websocket.Upgrader

	locations *locations.Service
	crew      *crew.Service
	users     *users.Service
	idem      idempotency.Store
	hub       *ws.Hub
	clk       clockport.Clock

	limiter      RateLimiter
	locationRate int
}

// NewRouter constructs the API router. Call Close to release the rate limiter.
func NewRouter(d Deps) *Router {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	rt := &Router{
		mux:     chi.NewRouter(),
		log:     log,
		metrics: newMetrics(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		locations:    d.Locations,
		crew:         d.Crew,
		users:        d.Users,
		idem:         d.Idempotency,
		hub:          d.Hub,
		clk:          d.Clock,
		limiter:      d.Limiter,
		locationRate: d.LocationRatePerMinute,
	}
	if rt.limiter == nil && rt.locationRate > 0 {
		rt.limiter = NewMemoryRateLimiter()
	}

	r := rt.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(rt.metrics.instrument)

	// Operational endpoints.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", rt.metrics.handler())

	r.Post("/api/crew/location", rt.withRateLimit("/api/crew/location", rt.locationRate, locationRateWindow, rt.handleRecordLocation))
	r.Get("/api/crew/current-location/{crew_member_id}", rt.handleCurrentLocation)
	if rt.hub != nil {
		r.Get("/api/crew/location-stream/{crew_member_id}", rt.handleLocationStream)
	}

	r.Get("/api/organization/crew", rt.handleListCrew)

	admin := RequireAdmin(d.Verifier, log)
	r.Post("/crew-members", admin(rt.handleAddCrewMember))
	r.Delete("/crew-members/{member_id}", admin(rt.handleRemoveCrewMember))

	r.Delete("/api/users/delete/{user_id}", rt.handleDeleteUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return rt
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Close releases background resources.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Close()
	}
}
