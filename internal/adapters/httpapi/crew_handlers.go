package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime/types"

	"github.com/fieldcrew/crew-tracker-api/internal/app/crew"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
)

const addCrewMemberRoute = "/crew-members"

func (rt *Router) handleListCrew(w http.ResponseWriter, r *http.Request) {
	ms, err := rt.crew.ListCrew(r.Context(), r.URL.Query().Get("org_id"))
	if err != nil {
		rt.writeCrewError(w, r, err)
		return
	}
	out := make([]CrewMember, 0, len(ms))
	for _, m := range ms {
		out = append(out, crewMemberFromDomain(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleAddCrewMember(w http.ResponseWriter, r *http.Request, admin domain.Identity) {
	ctx := r.Context()

	var body AddCrewMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, types.ErrValidationEmail) {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email address", map[string]any{"email": "must be a valid email address"})
			return
		}
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", nil)
		return
	}
	in := crew.AddCrewMemberInput{
		Name:  body.Name,
		Email: string(body.Email),
		Role:  body.Role,
	}

	// Idempotency handling:
	// - Replay if same admin+key+route+bodyHash
	// - Reject if same admin+key+route with different bodyHash (409)
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var metaFP idempotency.Fingerprint
	var bodyHash string
	if key != "" && rt.idem != nil {
		var err error
		bodyHash, err = hashAddCrewMemberInput(in)
		if err != nil {
			rt.writeCrewError(w, r, err)
			return
		}
		metaFP = idempotency.Fingerprint{
			Key:     idempotency.Key(key),
			Subject: admin.ID,
			Method:  http.MethodPost,
			Route:   addCrewMemberRoute,
		}
		if meta, ok, err := rt.idem.Get(ctx, metaFP); err != nil {
			rt.writeCrewError(w, r, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
				return
			}
		} else {
			_ = rt.idem.Put(ctx, metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   rt.now(),
			})
		}

		respFP := metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := rt.idem.Get(ctx, respFP); err != nil {
			rt.writeCrewError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusCreated && strings.HasPrefix(rec.ContentType, "application/json") {
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	created, outcome, err := rt.crew.AddCrewMember(ctx, admin, in)
	if err != nil {
		rt.writeCrewError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(crewMemberFromDomain(created)); err != nil {
		rt.writeCrewError(w, r, err)
		return
	}
	if key != "" && rt.idem != nil {
		respFP := metaFP
		respFP.BodyHash = bodyHash
		_ = rt.idem.Put(ctx, respFP, idempotency.Record{
			StatusCode:  http.StatusCreated,
			ContentType: "application/json",
			Body:        buf.Bytes(),
			CreatedAt:   rt.now(),
		})
	}

	if outcome.HasWarning() {
		w.Header().Set("Warning", "199 - "+strconv.Quote(outcome.Warning))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) handleRemoveCrewMember(w http.ResponseWriter, r *http.Request, admin domain.Identity) {
	id := domain.CrewMemberID(chi.URLParam(r, "member_id"))
	outcome, err := rt.crew.RemoveCrewMember(r.Context(), admin, id)
	if err != nil {
		rt.writeCrewError(w, r, err)
		return
	}
	resp := MessageResponse{Message: "Crew member removed successfully"}
	if outcome.HasWarning() {
		resp.Warning = outcome.Warning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) writeCrewError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*crew.Error)(nil); errors.As(err, &ae) {
		if ae.Status >= http.StatusInternalServerError {
			rt.log.Error("crew request failed", "code", ae.Code, "error", ae.Err)
		}
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	rt.log.Error("crew request failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
}

func (rt *Router) now() time.Time {
	if rt.clk != nil {
		return rt.clk.Now().UTC()
	}
	return time.Now().UTC()
}

func hashAddCrewMemberInput(in crew.AddCrewMemberInput) (string, error) {
	canon := struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}{
		Name:  domain.NormalizeHumanName(in.Name),
		Email: domain.NormalizeEmail(in.Email),
		Role:  strings.TrimSpace(in.Role),
	}
	raw, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
