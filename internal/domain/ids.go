package domain

// IdentityID is the platform-assigned identifier of an authenticated user (JWT "sub").
// It is opaque: its format is controlled by the identity platform.
type IdentityID string

// CrewMemberID is the identifier of a roster record.
type CrewMemberID string

// OrgID identifies an organization. Crew members and admins are scoped to one.
type OrgID string

// LocationID is the identifier of a single location sample.
type LocationID string
