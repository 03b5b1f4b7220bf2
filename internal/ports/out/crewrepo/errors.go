package crewrepo

import "errors"

var (
	// ErrNotFound indicates the requested crew member does not exist.
	ErrNotFound = errors.New("crew member not found")

	// ErrConflict indicates a uniqueness violation (same email in the same organization, or duplicate id).
	ErrConflict = errors.New("crew member already exists")

	// ErrForbidden indicates the storage layer refused the operation for the current credentials.
	ErrForbidden = errors.New("crew member operation forbidden")

	// ErrNoRow indicates a write succeeded at the transport level but returned no row.
	ErrNoRow = errors.New("crew member write returned no row")
)
