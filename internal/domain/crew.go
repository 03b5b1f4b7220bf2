package domain

import "time"

// CrewMember is a roster entry. It is distinct from, but may be linked to, an Identity.
type CrewMember struct {
	ID             CrewMemberID
	Name           string
	Email          string
	Role           string
	OrganizationID OrgID

	// UserID links the roster entry to its platform identity; nil until linked.
	UserID *IdentityID

	CreatedAt time.Time
}
