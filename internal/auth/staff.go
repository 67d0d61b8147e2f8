// Package auth holds the staff directory and desk login.
//
// Login is a flat credential lookup: a login ID picks a staff member, and
// everyone except technicians must also present their PIN. PINs are stored
// as bcrypt hashes, never in clear text.
package auth

import (
	"slices"
	"strings"

	"servicedesk/internal/complaint"
	"servicedesk/internal/errors"
)

// Role is a staff position.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleDeveloper  Role = "DEVELOPER"
)

// ParseRole converts a position string, defaulting to technician.
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleDeveloper:
		return r
	}
	return RoleTechnician
}

// Staff is one directory entry.
//
// ImportKey is the spelling the technician's name has in exported sheets,
// used when matching imported rows to people.
type Staff struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Position  Role   `json:"position"`
	LoginID   string `json:"loginId"`
	PinHash   string `json:"pinHash,omitempty"`
	ImportKey string `json:"importKey"`
	Status    string `json:"status"`
}

// Active reports whether the staff member may log in.
func (s Staff) Active() bool {
	return !strings.EqualFold(s.Status, "INACTIVE")
}

// Session is a logged-in staff member.
type Session struct {
	Staff Staff
}

// Assignee returns the name records are assigned under for this user.
func (s Session) Assignee() complaint.Assignee {
	return complaint.ParseAssignee(s.Staff.Name)
}

// IsTechnician reports whether the session is limited to field work.
func (s Session) IsTechnician() bool {
	return s.Staff.Position == RoleTechnician
}

// CanSetStatus reports whether the user may move a complaint to status.
// Technicians only get PENDING and TEMPORARY CLOSED; office staff get
// every known status.
func (s Session) CanSetStatus(status complaint.Status) bool {
	if s.IsTechnician() {
		return status.TechnicianSettable()
	}
	return status.Known()
}

// CanSee reports whether the record belongs in this user's list.
// Technicians only see work assigned to them.
func (s Session) CanSee(r complaint.Record) bool {
	if !s.IsTechnician() {
		return true
	}
	return r.Assignee == s.Assignee()
}

// Authorize returns a PermissionError when a technician attempts an office
// action such as importing or restoring data.
func (s Session) Authorize(action string) error {
	if s.IsTechnician() {
		return errors.NewPermissionError(s.Staff.Name, action)
	}
	return nil
}

// matchTechnician resolves a free-form name against the technicians in
// staff. A staff member matches when either name contains the other, or the
// import key contains the input. Unknown names pass through uppercased.
func matchTechnician(staff []Staff, input string) complaint.Assignee {
	name := complaint.ParseAssignee(input)
	if !name.Assigned() {
		return complaint.Unassigned
	}

	needle := string(name)
	i := slices.IndexFunc(staff, func(s Staff) bool {
		if s.Position != RoleTechnician {
			return false
		}
		full := strings.ToUpper(s.Name)
		return strings.Contains(full, needle) ||
			strings.Contains(needle, full) ||
			strings.Contains(strings.ToUpper(s.ImportKey), needle)
	})
	if i < 0 {
		return name
	}
	return complaint.Assignee(strings.ToUpper(staff[i].Name))
}
