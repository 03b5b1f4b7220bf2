package authn

import "net/http"

// Kind classifies why a bearer credential was not accepted.
type Kind int

const (
	KindMissing Kind = iota + 1
	KindExpired
	KindInvalid
	KindConfigMissing
	KindIdentityNotFound
	KindVerificationFailed
)

// Error is returned by Verifier.Verify for every rejected request.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status for the failure. Only a missing signing secret is
// a server error; everything else is the caller's problem.
func (e *Error) Status() int {
	if e.Kind == KindConfigMissing {
		return http.StatusInternalServerError
	}
	return http.StatusUnauthorized
}

func (e *Error) Code() string {
	switch e.Kind {
	case KindMissing:
		return "AUTH_MISSING"
	case KindExpired:
		return "AUTH_EXPIRED"
	case KindInvalid:
		return "AUTH_INVALID"
	case KindConfigMissing:
		return "AUTH_CONFIG_MISSING"
	case KindIdentityNotFound:
		return "AUTH_IDENTITY_NOT_FOUND"
	default:
		return "AUTH_VERIFICATION_FAILED"
	}
}
