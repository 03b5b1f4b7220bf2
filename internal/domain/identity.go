package domain

// RoleAdmin is the only role allowed through the admin gate. Comparison is exact.
const RoleAdmin = "admin"

// Identity is the typed view of a platform user record.
//
// Role and OrganizationID come from free-form platform metadata and are
// optional; nil means the claim was absent or not a string.
type Identity struct {
	ID    IdentityID
	Email string
	Name  string

	Role           *string
	OrganizationID *OrgID
}

// IsAdmin reports whether the identity carries the "admin" role claim.
func (i Identity) IsAdmin() bool {
	return i.Role != nil && *i.Role == RoleAdmin
}

// Org returns the organization claim, if present and non-empty.
func (i Identity) Org() (OrgID, bool) {
	if i.OrganizationID == nil || *i.OrganizationID == "" {
		return "", false
	}
	return *i.OrganizationID, true
}
