package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

func (rt *Router) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := domain.IdentityID(chi.URLParam(r, "user_id"))
	res := rt.users.DeleteUser(r.Context(), id)
	writeJSON(w, res.Status, UserDeleteResponse{Success: res.Success, Message: res.Message})
}
