package aggregate

import (
	"testing"
	"time"

	"servicedesk/internal/complaint"
	"servicedesk/internal/dates"

	"github.com/google/go-cmp/cmp"
)

var pkt = time.FixedZone("PKT", 5*60*60)

func testView() *View {
	now := time.Date(2024, 5, 10, 16, 30, 0, 0, pkt)
	return NewView(dates.New(pkt, func() time.Time { return now }))
}

func assignees(groups []Group) []complaint.Assignee {
	out := make([]complaint.Assignee, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Assignee)
	}
	return out
}

func TestGroupByAssignee(t *testing.T) {
	records := []complaint.Record{
		{ID: "1", Assignee: "A"},
		{ID: "2", Assignee: "B"},
		{ID: "3", Assignee: "A"},
	}

	groups := GroupByAssignee(records)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups but got %d", len(groups))
	}
	if groups[0].Assignee != "A" || len(groups[0].Records) != 2 {
		t.Errorf("expected A with 2 records first but got %s with %d", groups[0].Assignee, len(groups[0].Records))
	}
	if groups[0].Records[0].ID != "1" || groups[0].Records[1].ID != "3" {
		t.Error("expected records inside a group to keep input order")
	}
	if groups[1].Assignee != "B" || len(groups[1].Records) != 1 {
		t.Errorf("expected B with 1 record second but got %s with %d", groups[1].Assignee, len(groups[1].Records))
	}
}

func TestGroupByAssignee_TiesKeepFirstSeenOrder(t *testing.T) {
	records := []complaint.Record{
		{Assignee: "ZAHID"},
		{Assignee: ""},
		{Assignee: "IMRAN"},
		{Assignee: "IMRAN"},
		{Assignee: complaint.Unassigned},
	}

	got := assignees(GroupByAssignee(records))
	// UNASSIGNED and IMRAN tie at two; UNASSIGNED was seen first.
	expected := []complaint.Assignee{complaint.Unassigned, "IMRAN", "ZAHID"}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupByAssignee_Empty(t *testing.T) {
	if groups := GroupByAssignee(nil); len(groups) != 0 {
		t.Errorf("expected no groups but got %d", len(groups))
	}
}

func TestSummarize(t *testing.T) {
	records := []complaint.Record{
		{Status: complaint.StatusCompleted, VisitCharges: 500, PartsCharges: 1200},
		{Status: complaint.StatusVerified, OtherCharges: 300},
		{Status: complaint.StatusPending},
		{Status: complaint.StatusPending, VisitCharges: 100},
		{Status: complaint.StatusOnRoute},
	}

	got := Summarize(records)
	expected := Summary{Total: 5, Completed: 2, Pending: 2, Revenue: 2100}
	if got != expected {
		t.Errorf("expected %+v but got %+v", expected, got)
	}
	if got.CompletionPercent() != 40 {
		t.Errorf("expected 40%% but got %d%%", got.CompletionPercent())
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got != (Summary{}) {
		t.Errorf("expected zero summary but got %+v", got)
	}
	if got.CompletionRate() != 0 || got.CompletionPercent() != 0 {
		t.Error("expected 0/0 completion to be 0")
	}
}

func TestTopProducts(t *testing.T) {
	var records []complaint.Record
	add := func(product string, n int) {
		for range n {
			records = append(records, complaint.Record{Product: product})
		}
	}
	add("AIR CONDITIONER", 2)
	add("SPINNER", 4)
	add("", 9)
	add("MICROWAVE", 2)
	add("GEYSER", 1)
	add("REFRIGERATOR", 3)
	add("WASHING MACHINE", 1)

	got := TopProducts(records, 5)
	expected := []ProductCount{
		{"SPINNER", 4},
		{"REFRIGERATOR", 3},
		{"AIR CONDITIONER", 2},
		{"MICROWAVE", 2},
		{"GEYSER", 1},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestActionLabel(t *testing.T) {
	tests := map[complaint.Status]string{
		complaint.StatusCompleted:       "WORK DONE",
		complaint.StatusVerified:        "AUDIT VERIFIED",
		complaint.StatusTemporaryClosed: "SITE VISITED (HOLD)",
		complaint.StatusPending:         "READY TO ATTEND",
		complaint.StatusOnRoute:         "TRAVELLING",
		complaint.StatusPartsRequired:   string(complaint.StatusPartsRequired),
		"WAITING_FOR_PARTS":             "WAITING FOR PARTS",
	}
	for status, want := range tests {
		if got := ActionLabel(status); got != want {
			t.Errorf("ActionLabel(%q): expected %q but got %q", status, want, got)
		}
	}
}

func TestTimeOnly(t *testing.T) {
	tests := map[string]string{
		"10-05-2024 09:45": "09:45",
		"10-05-2024":       "--:--",
		"":                 "--:--",
	}
	for in, want := range tests {
		if got := TimeOnly(in); got != want {
			t.Errorf("TimeOnly(%q): expected %q but got %q", in, want, got)
		}
	}
}

func TestView_IsToday(t *testing.T) {
	v := testView()

	tests := []struct {
		name     string
		record   complaint.Record
		expected bool
	}{
		{"registered today", complaint.Record{RegistrationDate: "10-05-2024 09:00"}, true},
		{"updated today", complaint.Record{RegistrationDate: "01-01-2024", LastUpdateDate: "10-05-2024 15:00"}, true},
		{"update wins over registration", complaint.Record{RegistrationDate: "10-05-2024", LastUpdateDate: "09-05-2024 23:59"}, false},
		{"yesterday", complaint.Record{RegistrationDate: "09-05-2024"}, false},
		{"no dates", complaint.Record{}, false},
		{"raw unparsed", complaint.Record{RegistrationDate: "someday"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsToday(tt.record); got != tt.expected {
				t.Errorf("expected %v but got %v", tt.expected, got)
			}
		})
	}
}

func TestView_TodayActivity(t *testing.T) {
	v := testView()
	records := []complaint.Record{
		{ID: "1", Assignee: "IMRAN", LastUpdateDate: "10-05-2024 10:00"},
		{ID: "2", Assignee: "ZAHID", RegistrationDate: "10-05-2024 11:00"},
		{ID: "3", Assignee: "ZAHID", LastUpdateDate: "10-05-2024 12:00"},
		{ID: "4", Assignee: "IMRAN", RegistrationDate: "02-05-2024"},
		{ID: "5", RegistrationDate: "10-05-2024 13:00"},
	}

	got := v.TodayActivity(records)

	if got.DateLabel != "10 MAY 2024" {
		t.Errorf("expected label 10 MAY 2024 but got %q", got.DateLabel)
	}
	if got.Total != 4 {
		t.Errorf("expected 4 records today but got %d", got.Total)
	}
	if got.ActivePersonnel != 3 {
		t.Errorf("expected 3 active groups but got %d", got.ActivePersonnel)
	}
	expected := []complaint.Assignee{"ZAHID", "IMRAN", complaint.Unassigned}
	if diff := cmp.Diff(expected, assignees(got.Groups)); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
}
