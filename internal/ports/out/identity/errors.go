package identity

import "errors"

var (
	// ErrNotFound indicates the identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrConflict indicates an identity with the same email already exists.
	ErrConflict = errors.New("identity already exists")

	// ErrForbidden indicates the platform refused the operation (e.g. insufficient privileges).
	ErrForbidden = errors.New("identity operation forbidden")
)
