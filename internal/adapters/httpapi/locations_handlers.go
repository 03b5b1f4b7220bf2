package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldcrew/crew-tracker-api/internal/app/locations"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

func (rt *Router) handleRecordLocation(w http.ResponseWriter, r *http.Request) {
	var body RecordLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", locations.MissingDataMessage, nil)
		return
	}
	_, err := rt.locations.Record(r.Context(), locations.RecordInput{
		CrewMemberID: body.CrewMemberID,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
	})
	if err != nil {
		rt.writeLocationsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Location updated successfully"})
}

func (rt *Router) handleCurrentLocation(w http.ResponseWriter, r *http.Request) {
	id := domain.CrewMemberID(chi.URLParam(r, "crew_member_id"))
	sample, err := rt.locations.Current(r.Context(), id)
	if err != nil {
		rt.writeLocationsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationFromDomain(sample))
}

func (rt *Router) writeLocationsError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*locations.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	rt.log.Error("location request failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
}
