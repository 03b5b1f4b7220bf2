package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
)

// ErrorResponse is the JSON body of every error response except user deletion.
type ErrorResponse struct {
	Error     string                            `json:"error"`
	Code      string                            `json:"code,omitempty"`
	RequestID nullable.Nullable[string]         `json:"request_id,omitempty"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
}

func newErrorResponse(r *http.Request, code string, message string, details map[string]any) ErrorResponse {
	er := ErrorResponse{Error: message, Code: code}
	if details != nil {
		er.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.RequestID = nullable.NewNullableWithValue(rid)
	}
	return er
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, newErrorResponse(r, code, message, details))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
