package models

import (
	"time"
)

// ComplaintStatus is the lifecycle state of a complaint. The values are the
// display strings shown to submitters, so they carry spaces.
type ComplaintStatus string

const (
	StatusSubmitted     ComplaintStatus = "Submitted"
	StatusViewed        ComplaintStatus = "Viewed"
	StatusUnderReview   ComplaintStatus = "Under Review"
	StatusWorking       ComplaintStatus = "Working"
	StatusInvestigation ComplaintStatus = "Investigation"
	StatusResolved      ComplaintStatus = "Resolved"
	StatusDismissed     ComplaintStatus = "Dismissed"
)

// AllStatuses lists every lifecycle state in progression order.
var AllStatuses = []ComplaintStatus{
	StatusSubmitted,
	StatusViewed,
	StatusUnderReview,
	StatusWorking,
	StatusInvestigation,
	StatusResolved,
	StatusDismissed,
}

// IsValidStatus reports whether s is one of the recognized lifecycle states.
func IsValidStatus(s ComplaintStatus) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a complaint in this state can still progress.
// Resolved and Dismissed are terminal for display purposes only; staff may
// still overwrite the status (no forward-only gating).
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// OpenStatuses are the states counted as "open" on the committee dashboard.
var OpenStatuses = []ComplaintStatus{StatusSubmitted, StatusUnderReview, StatusInvestigation}

type Complaint struct {
	ID            string // CMP-XXXXXXXX, generated at submission
	Status        ComplaintStatus
	Severity      string
	Category      string
	Description   string
	AttachmentURL string
	AssignedTo    *string // staff user ID; nil means unassigned
	PasscodeHash  string  // SHA-256 hex; empty means the ID alone grants access
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// PublicUpdates is populated on reads that join the updates table.
	// Append-only, ordered by creation.
	PublicUpdates []PublicUpdate
}

// PasscodeProtected reports whether tracking requires a passcode.
func (c *Complaint) PasscodeProtected() bool {
	return c.PasscodeHash != ""
}

// PublicUpdate is a staff-authored message visible to the submitter.
type PublicUpdate struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// InternalNote is staff-only commentary. Notes live in their own table so
// read access can be restricted at the storage-permission layer, not just in
// handler code.
type InternalNote struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	AuthorID    string    `json:"author_id,omitempty"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardStats are the committee dashboard aggregates.
type DashboardStats struct {
	Total    int64
	Open     int64
	Critical int64 // severity Critical or High
	Resolved int64 // Resolved or Dismissed; both are closed outcomes
}
