package complaint

import "strings"

// Status is the workflow state of a complaint.
//
// Values are stored as their upper-case labels so existing store data and
// spreadsheets round-trip unchanged.
type Status string

const (
	StatusPending              Status = "PENDING"
	StatusPartyLifting         Status = "PARTY LIFTING"
	StatusReadyToDeliver       Status = "READY TO DELIVER"
	StatusOnline               Status = "ONLINE"
	StatusNotResponding        Status = "NOT RESPONDING"
	StatusPartsRequired        Status = "PARTS REQ (TECH)"
	StatusOnRoute              Status = "ON ROUTE"
	StatusPartNotAvailable     Status = "PART NOT AVAILABLE"
	StatusPartToAttend         Status = "PART TO ATTEND"
	StatusPendingForCustomer   Status = "PFA (CUSTOMER)"
	StatusPendingForHeadOffice Status = "PFA (HEAD OFFICE)"
	StatusServiceCentreLifting Status = "SERVICE CENTRE LIFTING"
	StatusCompleted            Status = "COMPLETED"
	StatusCancelled            Status = "CANCEL"
	StatusTemporaryClosed      Status = "TEMPORARY CLOSED"
	StatusVerified             Status = "VERIFIED"
)

// Statuses lists every status an admin may assign, in menu order.
var Statuses = []Status{
	StatusPending,
	StatusPartyLifting,
	StatusReadyToDeliver,
	StatusOnline,
	StatusNotResponding,
	StatusPartsRequired,
	StatusOnRoute,
	StatusPartNotAvailable,
	StatusPartToAttend,
	StatusPendingForCustomer,
	StatusPendingForHeadOffice,
	StatusServiceCentreLifting,
	StatusCompleted,
	StatusCancelled,
	StatusTemporaryClosed,
	StatusVerified,
}

// TechnicianStatuses are the only statuses a technician may set from the field.
var TechnicianStatuses = []Status{StatusPending, StatusTemporaryClosed}

// ParseStatus converts a label from a spreadsheet, flag or store into a
// Status. Case and surrounding space are ignored; an empty label is PENDING.
// Unknown labels are kept as-is so imported data is never lost.
func ParseStatus(s string) Status {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StatusPending
	}
	return Status(s)
}

// String returns the stored label.
func (s Status) String() string {
	return string(s)
}

// Known reports whether s is one of the admin statuses.
func (s Status) Known() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Done reports whether the job finished successfully.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusVerified
}

// TechnicianSettable reports whether a technician may move a job to s.
func (s Status) TechnicianSettable() bool {
	for _, allowed := range TechnicianStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// Unassigned is the assignee of a job nobody has picked up.
const Unassigned Assignee = "UNASSIGNED"

// Assignee names the technician a job is allocated to.
type Assignee string

// ParseAssignee converts a technician name from input into an Assignee.
// Blank names, "---" and "UNASSIGNED" in any case all mean Unassigned.
func ParseAssignee(s string) Assignee {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "---" || s == string(Unassigned) {
		return Unassigned
	}
	return Assignee(s)
}

// String returns the stored name.
func (a Assignee) String() string {
	if a == "" {
		return string(Unassigned)
	}
	return string(a)
}

// Assigned reports whether a technician holds the job.
func (a Assignee) Assigned() bool {
	return a != "" && a != Unassigned
}
