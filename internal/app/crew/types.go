package crew

// AddCrewMemberInput is the admin-supplied payload for a new crew member.
type AddCrewMemberInput struct {
	Name  string
	Email string
	Role  string
}

// IdentityDeleteWarning is returned when the roster row is gone but the linked
// account could not be deleted. Upstream error text stays in the logs.
const IdentityDeleteWarning = "Crew member removed but failed to delete user account"

// OutcomeKind tags how a roster operation completed.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSuccessWithWarning
)

// Outcome is the result of an operation that succeeded, possibly with a
// non-fatal problem the caller should surface.
type Outcome struct {
	Kind    OutcomeKind
	Warning string
}

func success() Outcome { return Outcome{Kind: OutcomeSuccess} }

func successWithWarning(msg string) Outcome {
	return Outcome{Kind: OutcomeSuccessWithWarning, Warning: msg}
}

// HasWarning reports whether the outcome carries a warning.
func (o Outcome) HasWarning() bool { return o.Kind == OutcomeSuccessWithWarning }
