// Package complaint holds the complaint record model and the in-memory
// complaint book that persists it.
package complaint

// Record is one complaint / work order.
//
// ID is assigned once at creation and never reused. Date fields hold
// canonical strings ("DD-MM-YYYY" or "DD-MM-YYYY HH:MM") or are empty.
// JSON names match the browser-era store so old exports load unchanged.
type Record struct {
	ID                 string   `json:"id"`
	WorkOrder          string   `json:"workOrder"`
	Product            string   `json:"product"`
	Priority           string   `json:"priority"`
	RegistrationDate   string   `json:"regDate"`
	ComplaintNo        string   `json:"complaintNo"`
	Status             Status   `json:"status"`
	Assignee           Assignee `json:"techName"`
	LastUpdateDate     string   `json:"updateDate"`
	Remarks            string   `json:"remarks"`
	Model              string   `json:"model"`
	SerialNo           string   `json:"serialNo"`
	ProblemDescription string   `json:"problemDescription"`
	PurchaseDate       string   `json:"dop"`
	CustomerName       string   `json:"customerName"`
	PhoneNo            string   `json:"phoneNo"`
	Address            string   `json:"address"`
	VisitCharges       int      `json:"visitCharges"`
	PartsCharges       int      `json:"partsCharges"`
	OtherCharges       int      `json:"otherCharges"`

	// Aging is whole days since RegistrationDate. It depends on the current
	// time, so it is recomputed on every load and never written back.
	Aging int `json:"-"`
}

// TotalCharges sums the three charge fields.
func (r Record) TotalCharges() int {
	return r.VisitCharges + r.PartsCharges + r.OtherCharges
}

// LastActivity returns the update date, or the registration date when the
// record was never touched after creation.
func (r Record) LastActivity() string {
	if r.LastUpdateDate != "" {
		return r.LastUpdateDate
	}
	return r.RegistrationDate
}

// Patch describes an in-place edit. Nil fields are left untouched.
type Patch struct {
	Status       *Status
	Assignee     *Assignee
	Remarks      *string
	CustomerName *string
	PhoneNo      *string
	Address      *string
	Model        *string
	SerialNo     *string
	PurchaseDate *string
	VisitCharges *int
	PartsCharges *int
	OtherCharges *int
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// apply copies the set fields onto r. Charges below zero are stored as zero.
func (p Patch) apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Assignee != nil {
		r.Assignee = *p.Assignee
	}
	if p.Remarks != nil {
		r.Remarks = *p.Remarks
	}
	if p.CustomerName != nil {
		r.CustomerName = *p.CustomerName
	}
	if p.PhoneNo != nil {
		r.PhoneNo = *p.PhoneNo
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Model != nil {
		r.Model = *p.Model
		r.Product = ""
	}
	if p.SerialNo != nil {
		r.SerialNo = *p.SerialNo
	}
	if p.PurchaseDate != nil {
		r.PurchaseDate = *p.PurchaseDate
	}
	if p.VisitCharges != nil {
		r.VisitCharges = nonNegative(*p.VisitCharges)
	}
	if p.PartsCharges != nil {
		r.PartsCharges = nonNegative(*p.PartsCharges)
	}
	if p.OtherCharges != nil {
		r.OtherCharges = nonNegative(*p.OtherCharges)
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
