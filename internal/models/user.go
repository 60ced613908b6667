package models

import (
	"time"
)

// Staff roles. Role is authoritative for access control and is always
// re-read from the store, never taken from a client-supplied claim.
const (
	RoleAdmin       = "admin"
	RoleDeveloper   = "developer"
	RoleCommittee   = "committee"
	RoleActionTaker = "action_taker"
)

// ComplaintRoles are the roles allowed onto the complaint dashboards.
var ComplaintRoles = []string{RoleAdmin, RoleCommittee, RoleActionTaker}

// IsValidRole reports whether role is one of the recognized staff roles.
// Anything else is denied and forcibly signed out.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDeveloper, RoleCommittee, RoleActionTaker:
		return true
	}
	return false
}

// CanReadInternalNotes reports whether a role may read the internal notes
// of a complaint.
func CanReadInternalNotes(role string) bool {
	return role == RoleAdmin || role == RoleCommittee || role == RoleActionTaker
}

// User is a staff principal.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Department   string
	Status       string // "active", "disabled"

	// Optional TOTP MFA. The secret is stored AES-GCM encrypted.
	MFAEnabled      bool
	TOTPSecretEnc   []byte
	TOTPSecretNonce []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) Active() bool {
	return u.Status == "active"
}
