package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/ws"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// handleLocationStream upgrades to a websocket and pushes every new sample for the crew member.
func (rt *Router) handleLocationStream(w http.ResponseWriter, r *http.Request) {
	id := domain.CrewMemberID(strings.TrimSpace(chi.URLParam(r, "crew_member_id")))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "crew_member_id is required", nil)
		return
	}
	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rt.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, rt.log)
	if !rt.hub.Register(id, client) {
		client.Close()
		return
	}
	go func() {
		defer func() {
			rt.hub.Unregister(id, client)
			client.Close()
		}()
		// Reads only detect disconnects; inbound messages are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
