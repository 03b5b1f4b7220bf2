package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned when a client is requested without the URL or key it needs.
var ErrNotConfigured = errors.New("supabase client not configured")

// Kind classifies an upstream failure so callers never have to inspect message text.
type Kind int

const (
	KindUpstream Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	default:
		return "upstream"
	}
}

// Error is a structured error response from PostgREST or GoTrue.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase request failed (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase request failed (%d): %s", e.Status, e.Message)
}

// Kind derives the failure class from the HTTP status and the platform error code.
//
// PostgREST reports unique violations as 409 with code 23505; GoTrue reports duplicate
// users as 422 with error_code email_exists/user_already_exists.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindUpstream
	}
	switch e.Code {
	case "23505", "email_exists", "user_already_exists", "phone_exists":
		return KindConflict
	case "user_not_found", "PGRST116":
		return KindNotFound
	case "not_admin", "42501":
		return KindForbidden
	}
	switch e.Status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindBadRequest
	}
	return KindUpstream
}

// CodeInvalidTextRepresentation is the Postgres code PostgREST relays when a filter
// value cannot be cast to the column type, e.g. a non-uuid id.
const CodeInvalidTextRepresentation = "22P02"

// IsInvalidID reports whether err is a cast failure on an id filter. No row can
// match such an id, so callers treat it as not found.
func IsInvalidID(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeInvalidTextRepresentation
}

// KindOf returns the Kind of err if it wraps an *Error, otherwise KindUpstream.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind()
	}
	return KindUpstream
}

// parseError builds an *Error from a non-2xx response body.
//
// The two services use different envelopes:
//   - PostgREST: {"code":"23505","message":"...","details":"...","hint":"..."}
//   - GoTrue:    {"code":422,"error_code":"email_exists","msg":"..."} or {"error":"...","error_description":"..."}
func parseError(status int, body []byte) *Error {
	out := &Error{Status: status}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		out.Message = strings.TrimSpace(string(body))
		if out.Message == "" {
			out.Message = http.StatusText(status)
		}
		return out
	}

	if v, ok := payload["error_code"].(string); ok && v != "" {
		out.Code = v
	} else if v, ok := payload["code"].(string); ok && v != "" {
		out.Code = v
	}
	for _, k := range []string{"msg", "message", "error_description", "error"} {
		if v, ok := payload[k].(string); ok && v != "" {
			out.Message = v
			break
		}
	}
	if out.Message == "" {
		out.Message = http.StatusText(status)
	}
	return out
}
